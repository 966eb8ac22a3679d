package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// ClassID identifies an object class in the detector's vocabulary.
type ClassID int

// Setting is the indoor/outdoor context of the photographed venue.
type Setting string

const (
	Indoor  Setting = "indoor"
	Outdoor Setting = "outdoor"
)

// Category is the venue type used to pick a default area.
type Category string

const (
	Bar       Category = "Bar"
	Beverage  Category = "Beverage"
	Cantonese Category = "Cantonese"
	HairSalon Category = "HairSalon"
	Hotpot    Category = "Hotpot"
	Japanese  Category = "Japanese"
	Store     Category = "Store"
	Szechuan  Category = "Szechuan"
)

// Settings lists every known Setting.
var Settings = []Setting{Indoor, Outdoor}

// Categories lists every known Category in display order.
var Categories = []Category{Bar, Beverage, Cantonese, HairSalon, Hotpot, Japanese, Store, Szechuan}

// Reference is a common object class with its typical real-world area.
type Reference struct {
	ID     ClassID `json:"id"`
	Name   string  `json:"name"`
	AreaM2 float64 `json:"area_m2"`
}

// ConfigurationError reports a setting/category lookup the catalog cannot
// satisfy. It signals a caller or configuration mismatch and must not be
// replaced with a numeric default.
type ConfigurationError struct {
	Setting  Setting
	Category Category
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return "catalog configuration: " + e.Reason
	}
	return fmt.Sprintf("catalog configuration: no default area for setting %q, category %q", e.Setting, e.Category)
}

// Catalog is an immutable pair of lookup tables.
type Catalog struct {
	references map[ClassID]Reference
	defaults   map[Setting]map[Category]float64
}

// New builds a catalog from the given tables. Inputs are copied. Every area
// must be finite and strictly positive.
func New(refs []Reference, defaults map[Setting]map[Category]float64) (*Catalog, error) {
	c := &Catalog{
		references: make(map[ClassID]Reference, len(refs)),
		defaults:   make(map[Setting]map[Category]float64, len(defaults)),
	}

	for _, r := range refs {
		if !positive(r.AreaM2) {
			return nil, fmt.Errorf("reference %d (%s): area must be positive, got %v", r.ID, r.Name, r.AreaM2)
		}
		if _, dup := c.references[r.ID]; dup {
			return nil, fmt.Errorf("reference %d listed twice", r.ID)
		}
		c.references[r.ID] = r
	}

	for setting, row := range defaults {
		if _, err := ParseSetting(string(setting)); err != nil {
			return nil, err
		}
		copied := make(map[Category]float64, len(row))
		for category, area := range row {
			if _, err := ParseCategory(string(category)); err != nil {
				return nil, err
			}
			if !positive(area) {
				return nil, fmt.Errorf("default %s/%s: area must be positive, got %v", setting, category, area)
			}
			copied[category] = area
		}
		c.defaults[setting] = copied
	}

	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(builtinReferences, builtinDefaults)
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	References []Reference                       `json:"references"`
	Defaults   map[Setting]map[Category]float64 `json:"defaults"`
}

// LoadFile reads a JSON override file. Sections absent from the file keep
// their built-in values.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	refs := f.References
	if refs == nil {
		refs = builtinReferences
	}
	defaults := f.Defaults
	if defaults == nil {
		defaults = builtinDefaults
	}
	return New(refs, defaults)
}

// AverageArea returns the typical area in m² for a class. The second result
// is false when the class is not a known reference object.
func (c *Catalog) AverageArea(id ClassID) (float64, bool) {
	r, ok := c.references[id]
	if !ok {
		return 0, false
	}
	return r.AreaM2, true
}

// ClassName returns the human label for a class, or "class <id>" when unknown.
func (c *Catalog) ClassName(id ClassID) string {
	if r, ok := c.references[id]; ok {
		return r.Name
	}
	return fmt.Sprintf("class %d", id)
}

// DefaultArea returns the fallback display area for a setting and category.
func (c *Catalog) DefaultArea(setting Setting, category Category) (float64, error) {
	area, ok := c.defaults[setting][category]
	if !ok {
		return 0, &ConfigurationError{Setting: setting, Category: category}
	}
	return area, nil
}

// Classes lists the reference classes sorted by id.
func (c *Catalog) Classes() []Reference {
	out := make([]Reference, 0, len(c.references))
	for _, r := range c.references {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParseSetting accepts "indoor" or "outdoor" in any letter case.
func ParseSetting(s string) (Setting, error) {
	switch Setting(strings.ToLower(strings.TrimSpace(s))) {
	case Indoor:
		return Indoor, nil
	case Outdoor:
		return Outdoor, nil
	}
	return "", &ConfigurationError{Setting: Setting(s), Reason: fmt.Sprintf("unknown setting %q (want indoor or outdoor)", s)}
}

// ParseCategory accepts one of the Categories, matched exactly.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &ConfigurationError{Category: Category(s), Reason: fmt.Sprintf("unknown category %q", s)}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
