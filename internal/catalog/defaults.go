package catalog

// Fallback pricing applied when a label cannot be matched against the menu.
const (
	defaultFallbackPrice    int64 = 10000
	defaultFallbackCalories       = 100
)

// defaultEntries is the built-in canteen menu used when no menu file is
// available. Prices in VND, calories in kcal.
var defaultEntries = []Entry{
	{Label: "banh mi", Price: 15000, Calories: 350},
	{Label: "bap cai luoc", Price: 5000, Calories: 30},
	{Label: "bap cai xao", Price: 8000, Calories: 60},
	{Label: "bo xao", Price: 25000, Calories: 250},
	{Label: "ca chien", Price: 20000, Calories: 200},
	{Label: "ca chua", Price: 5000, Calories: 20},
	{Label: "ca kho", Price: 18000, Calories: 180},
	{Label: "ca rot", Price: 5000, Calories: 25},
	{Label: "canh bau", Price: 10000, Calories: 40},
	{Label: "canh bi do", Price: 10000, Calories: 45},
	{Label: "canh cai", Price: 10000, Calories: 35},
	{Label: "canh chua", Price: 12000, Calories: 60},
	{Label: "canh rong bien", Price: 12000, Calories: 30},
	{Label: "chuoi", Price: 5000, Calories: 90},
	{Label: "com", Price: 10000, Calories: 150},
	{Label: "dau bap", Price: 7000, Calories: 35},
	{Label: "dau hu", Price: 8000, Calories: 70},
	{Label: "dau que", Price: 7000, Calories: 30},
	{Label: "do chua", Price: 5000, Calories: 15},
	{Label: "dua hau", Price: 8000, Calories: 50},
	{Label: "dua leo", Price: 5000, Calories: 15},
	{Label: "ga chien", Price: 22000, Calories: 280},
	{Label: "ga kho", Price: 20000, Calories: 250},
	{Label: "kho qua", Price: 8000, Calories: 25},
	{Label: "kho tieu", Price: 18000, Calories: 200},
	{Label: "kho trung", Price: 12000, Calories: 150},
	{Label: "nuoc mam", Price: 2000, Calories: 10},
	{Label: "nuoc tuong", Price: 2000, Calories: 5},
	{Label: "oi", Price: 8000, Calories: 40},
	{Label: "ot", Price: 2000, Calories: 5},
	{Label: "rau", Price: 5000, Calories: 20},
	{Label: "rau muong", Price: 8000, Calories: 25},
	{Label: "rau ngo", Price: 5000, Calories: 15},
	{Label: "suon mieng", Price: 25000, Calories: 300},
	{Label: "suon xao", Price: 25000, Calories: 280},
	{Label: "thanh long", Price: 10000, Calories: 60},
	{Label: "thit chien", Price: 22000, Calories: 250},
	{Label: "thit luoc", Price: 20000, Calories: 180},
	{Label: "tom", Price: 25000, Calories: 120},
	{Label: "trung chien", Price: 10000, Calories: 120},
	{Label: "trung luoc", Price: 8000, Calories: 80},
	{Label: FallbackLabel, Price: defaultFallbackPrice, Calories: defaultFallbackCalories},
}

// Default returns the built-in menu catalog.
func Default() *Catalog {
	return New(defaultEntries)
}
