package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMenu(t *testing.T) {
	c := Default()
	assert.Equal(t, 42, c.Len(), "41 dishes plus the fallback entry")

	e, ok := c.Lookup("com")
	require.True(t, ok)
	assert.Equal(t, int64(10000), e.Price)
	assert.Equal(t, 150, e.Calories)

	e, ok = c.Lookup("ga chien")
	require.True(t, ok)
	assert.Equal(t, int64(22000), e.Price)
	assert.Equal(t, 280, e.Calories)
}

func TestLookupNormalization(t *testing.T) {
	c := Default()

	tests := []struct {
		query string
		want  string
	}{
		{"Gà Chiên", "ga chien"},
		{"  canh chua  ", "canh chua"},
		{"CƠM", "com"},
		{"trứng   luộc", "trung luoc"},
	}

	for _, tt := range tests {
		e, ok := c.Lookup(tt.query)
		require.True(t, ok, "query %q", tt.query)
		assert.Equal(t, tt.want, e.Label)
	}

	_, ok := c.Lookup("pizza")
	assert.False(t, ok)
}

func TestFallbackEntry(t *testing.T) {
	c := Default()
	fb := c.Fallback()
	assert.Equal(t, FallbackLabel, fb.Label)
	assert.Equal(t, int64(10000), fb.Price)
	assert.Equal(t, 100, fb.Calories)

	// A catalog without its own fallback entry still yields default pricing.
	bare := New([]Entry{{Label: "com", Price: 9000, Calories: 140}})
	fb = bare.Fallback()
	assert.Equal(t, FallbackLabel, fb.Label)
	assert.Equal(t, int64(10000), fb.Price)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.csv")
	content := "item,price,calories\ncom,9000,140\nga chien,21000,275\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	e, ok := c.Lookup("com")
	require.True(t, ok)
	assert.Equal(t, int64(9000), e.Price)
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "missing_col.csv")
	require.NoError(t, os.WriteFile(bad, []byte("item,price\ncom,9000\n"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	badPrice := filepath.Join(dir, "bad_price.csv")
	require.NoError(t, os.WriteFile(badPrice, []byte("item,price,calories\ncom,cheap,140\n"), 0o644))
	_, err = Load(badPrice)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)

	unsupported := filepath.Join(dir, "menu.toml")
	require.NoError(t, os.WriteFile(unsupported, []byte(""), 0o644))
	_, err = Load(unsupported)
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	content := `
- item: com
  price: 9500
  calories: 145
- item: canh chua
  price: 11000
  calories: 55
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	e, ok := c.Lookup("canh chua")
	require.True(t, ok)
	assert.Equal(t, int64(11000), e.Price)
	assert.Equal(t, 55, e.Calories)
}

func TestLoadOrDefault(t *testing.T) {
	c := LoadOrDefault("")
	assert.Equal(t, 42, c.Len())

	c = LoadOrDefault("/nonexistent/menu.csv")
	assert.Equal(t, 42, c.Len(), "unreadable menu falls back to defaults")
}

func TestEntriesSortedCopy(t *testing.T) {
	c := New([]Entry{
		{Label: "tom", Price: 25000, Calories: 120},
		{Label: "com", Price: 10000, Calories: 150},
	})
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "com", entries[0].Label)

	entries[0].Price = 1
	again := c.Entries()
	assert.Equal(t, int64(10000), again[0].Price, "Entries returns a copy")
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gà Chiên", "ga chien"},
		{"  Cơm ", "com"},
		{"canh  chua", "canh chua"},
		{"trung luoc", "trung luoc"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLabel(tt.in), "input %q", tt.in)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"com", CategoryCarbohydrate},
		{"banh mi", CategoryCarbohydrate},
		{"ga chien", CategoryProtein},
		{"thit luoc", CategoryProtein},
		{"rau muong", CategoryVegetable},
		{"dua leo", CategoryVegetable},
		{"canh chua", CategorySoup},
		{"chuoi", CategoryOther},
		{"unknown", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryOf(tt.label), "label %q", tt.label)
	}
}
