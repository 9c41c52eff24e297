package core

import "strings"

// BuiltinCategories is the fixed core list every household starts with.
var BuiltinCategories = []string{
	"Shopping",
	"Beauty",
	"Pet",
	"Entertainment",
	"Home",
	"Food",
	"Snacks",
	"Gift",
	"Donate",
	"Investments",
	"Apparel",
	"Household",
	"Education",
	"Transportation",
	"Health",
	"Culture",
	"Other",
}

const defaultCategoryColor = "#D4D4D8"

var categoryColors = map[string]string{
	"Shopping":       "#86EFAC",
	"Beauty":         "#C084FC",
	"Pet":            "#67E8F9",
	"Entertainment":  "#FCA5A5",
	"Home":           "#A78BFA",
	"Food":           "#FDE047",
	"Snacks":         "#FDE047",
	"Gift":           "#FCD34D",
	"Donate":         "#60A5FA",
	"Investments":    "#F472B6",
	"Apparel":        "#FB923C",
	"Household":      "#FCA5A5",
	"Education":      "#FCD34D",
	"Transportation": "#FDE047",
	"Health":         "#86EFAC",
	"Culture":        "#A78BFA",
	"Other":          defaultCategoryColor,
}

// CategoryColor returns the chart color for a category; user-added
// categories get the neutral color.
func CategoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return defaultCategoryColor
}

// CategorySet is an ordered, de-duplicated set of category names. The zero
// value is ready to use.
type CategorySet struct {
	names []string
	seen  map[string]struct{}
}

func NewCategorySet(names ...string) *CategorySet {
	s := &CategorySet{}
	s.Add(names...)
	return s
}

// Add appends the names not yet present, ignoring blanks. It returns how
// many were added.
func (s *CategorySet) Add(names ...string) int {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	added := 0
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := s.seen[n]; ok {
			continue
		}
		s.seen[n] = struct{}{}
		s.names = append(s.names, n)
		added++
	}
	return added
}

func (s *CategorySet) Contains(name string) bool {
	_, ok := s.seen[strings.TrimSpace(name)]
	return ok
}

// Names returns a copy of the names in insertion order.
func (s *CategorySet) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *CategorySet) Len() int { return len(s.names) }
