package catalog

import "strings"

// Food categories for the menu browsing endpoint.
const (
	CategoryCarbohydrate = "Carbohydrates"
	CategoryProtein      = "Protein"
	CategoryVegetable    = "Vegetable"
	CategorySoup         = "Soup"
	CategoryOther        = "Other"
)

// Keyword groups checked in priority order. The first group containing a
// substring of the normalized label determines the category.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryCarbohydrate, []string{"com", "bun", "pho", "banh"}},
	{CategoryProtein, []string{"thit", "ga", "bo", "ca chien", "ca kho", "trung", "tom", "suon", "kho tieu", "dau hu"}},
	{CategoryVegetable, []string{"rau", "dau", "bap cai", "cai", "dua leo", "ot", "ca chua", "kho qua"}},
	{CategorySoup, []string{"canh", "ca chua", "ca rot"}},
}

// CategoryOf assigns a dish label to a coarse food category by keyword
// matching on the normalized label.
func CategoryOf(label string) string {
	name := NormalizeLabel(label)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(name, kw) {
				return group.category
			}
		}
	}
	return CategoryOther
}
