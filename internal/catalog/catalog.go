// Package catalog maintains the menu of known dishes with their prices and
// calorie counts, loaded from CSV or YAML or falling back to a built-in menu.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is a single menu item. Price is in VND, Calories in kcal.
type Entry struct {
	Label    string `yaml:"item" json:"item"`
	Price    int64  `yaml:"price" json:"price"`
	Calories int    `yaml:"calories" json:"calories"`
}

// FallbackLabel is the catalog entry substituted for labels that cannot be
// priced.
const FallbackLabel = "unknown"

// Catalog is an immutable lookup table over menu entries. Lookups are
// case-insensitive and diacritic-insensitive.
type Catalog struct {
	entries []Entry
	index   map[string]Entry
}

// New builds a catalog from the given entries. Later entries with the same
// normalized label override earlier ones.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]Entry, len(entries)),
	}
	copy(c.entries, entries)
	for _, e := range entries {
		c.index[NormalizeLabel(e.Label)] = e
	}
	return c
}

// Load reads a menu file. The format is selected by extension: .csv expects
// an item,price,calories header; .yaml/.yml expects a list of entries.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open menu file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(f)
	case ".yaml", ".yml":
		return loadYAML(f)
	default:
		return nil, fmt.Errorf("unsupported menu format %q (want .csv, .yaml, or .yml)", filepath.Ext(path))
	}
}

// LoadOrDefault loads the menu from path, falling back to the built-in menu
// when the path is empty or the file cannot be read. The fallback is logged
// rather than surfaced as an error so the service can start without assets.
func LoadOrDefault(path string) *Catalog {
	if path == "" {
		return Default()
	}
	c, err := Load(path)
	if err != nil {
		slog.Warn("failed to load menu, using built-in defaults", "path", path, "error", err)
		return Default()
	}
	slog.Info("menu loaded", "path", path, "entries", c.Len())
	return c
}

func loadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("menu CSV is empty")
	}

	header := records[0]
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"item", "price", "calories"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("menu CSV missing column %q", required)
		}
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		label := strings.TrimSpace(rec[col["item"]])
		if label == "" {
			continue
		}
		price, err := strconv.ParseInt(strings.TrimSpace(rec[col["price"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("menu CSV row %d: invalid price %q", i+2, rec[col["price"]])
		}
		calories, err := strconv.Atoi(strings.TrimSpace(rec[col["calories"]]))
		if err != nil {
			return nil, fmt.Errorf("menu CSV row %d: invalid calories %q", i+2, rec[col["calories"]])
		}
		entries = append(entries, Entry{Label: label, Price: price, Calories: calories})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("menu CSV has no entries")
	}
	return New(entries), nil
}

func loadYAML(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu YAML: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse menu YAML: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("menu YAML has no entries")
	}
	return New(entries), nil
}

// Lookup finds an entry by label. Matching is case-insensitive and ignores
// diacritics, so "Gà Chiên" resolves the "ga chien" entry.
func (c *Catalog) Lookup(label string) (Entry, bool) {
	e, ok := c.index[NormalizeLabel(label)]
	return e, ok
}

// Fallback returns the entry substituted for unpriceable labels. When the
// loaded menu carries its own fallback entry that one is used, otherwise the
// built-in default pricing applies.
func (c *Catalog) Fallback() Entry {
	if e, ok := c.index[FallbackLabel]; ok {
		return e
	}
	return Entry{Label: FallbackLabel, Price: defaultFallbackPrice, Calories: defaultFallbackCalories}
}

// Entries returns a copy of all entries sorted by label.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
