package categorize

import "strings"

// synonym maps a lower-case substring of explicit category text to a label.
type synonym struct {
	key   string
	label string
}

// categorySynonyms is checked in order; the first contained key wins.
var categorySynonyms = []synonym{
	{"groceries", Groceries},
	{"restaurant", Dining},
	{"food", Dining},
	{"gasoline", Gas},
	{"gas", Gas},
	{"fuel", Gas},
	{"utilities", Utilities},
	{"electric", Utilities},
	{"water", Utilities},
	{"phone", Utilities},
	{"internet", Utilities},
	{"shopping", Shopping},
	{"entertainment", Entertainment},
	{"travel", Travel},
	{"healthcare", Healthcare},
	{"insurance", Insurance},
	{"mortgage", Housing},
	{"rent", Housing},
	{"salary", Income},
	{"payroll", Income},
	{"transfer", Transfer},
}

// MapCategory normalizes category text supplied by an import source.
// Empty text yields Uncategorized; text without a known synonym is returned unchanged.
func MapCategory(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Uncategorized
	}
	lower := strings.ToLower(trimmed)
	for _, s := range categorySynonyms {
		if strings.Contains(lower, s.key) {
			return s.label
		}
	}
	return trimmed
}

// Resolve picks the category for an imported row: explicit text wins, then
// merchant rules, then Uncategorized.
func Resolve(explicit, merchant string) string {
	if strings.TrimSpace(explicit) != "" {
		return MapCategory(explicit)
	}
	if c := Categorize(merchant); c != "" {
		return c
	}
	return Uncategorized
}
