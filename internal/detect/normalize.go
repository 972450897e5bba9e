package detect

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/pkg/formatting"
)

// naEquivalents are folded values treated as "no applicable value".
var naEquivalents = map[string]bool{
	"":               true,
	"n/a":            true,
	"na":             true,
	"none":           true,
	"null":           true,
	"not applicable": true,
	"-":              true,
}

// currencyStripper removes currency symbols, grouping separators, and
// spacing before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "",
	"usd", "", "eur", "", "gbp", "",
	",", "", " ", "", " ", "",
)

// dateLayouts are accepted inbound date formats, tried in order.
// Numeric slash dates are read as month/day.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2 2006",
	time.RFC3339,
}

const canonicalDate = "2006-01-02"

// numericTolerance bounds the absolute difference under which two parsed
// numbers are considered the same extraction. Covers rounding drift in
// currency values ("$1,000,000.00" vs "$1000000").
const numericTolerance = 0.005

// Normalize folds a raw candidate value into the canonical comparison form
// for the given column type. Values that fail type-specific parsing fall
// back to case/whitespace folding so they still compare stably.
func Normalize(t grid.ColumnType, value string) string {
	folded := fold(value)

	switch t {
	case grid.TypeNumber:
		return normalizeNumber(folded)
	case grid.TypeCurrency:
		return normalizeNumber(fold(currencyStripper.Replace(folded)))
	case grid.TypeDate:
		return normalizeDate(value, folded)
	case grid.TypeYesNo:
		return normalizeYesNo(folded)
	case grid.TypeBulletedList, grid.TypeMultipleTags:
		return normalizeList(value, t)
	default:
		return folded
	}
}

// IsNAEquivalent reports whether a value means "nothing here" once folded.
func IsNAEquivalent(value string) bool {
	return naEquivalents[fold(value)]
}

// Equivalent reports whether two normalized values agree for the given
// column type. Numeric types compare within tolerance; all other types
// compare their canonical strings.
func Equivalent(t grid.ColumnType, a, b string) bool {
	if a == b {
		return true
	}

	if t == grid.TypeNumber || t == grid.TypeCurrency {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			return math.Abs(fa-fb) <= numericTolerance
		}
	}

	return false
}

// fold lowercases and collapses interior whitespace.
func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeNumber(folded string) string {
	cleaned := strings.ReplaceAll(folded, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return folded
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func normalizeDate(raw, folded string) string {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(canonicalDate)
		}
	}
	return folded
}

func normalizeYesNo(folded string) string {
	switch folded {
	case "yes", "y", "true", "1", "affirmative":
		return "yes"
	case "no", "n", "false", "0", "negative":
		return "no"
	default:
		return folded
	}
}

// normalizeList canonicalizes list-valued cells: elements are folded,
// deduplicated, and sorted so element order never manufactures a conflict.
// Accepts JSON arrays (optionally inside a markdown fence, as extraction
// models tend to emit), bullet lines, or comma-separated tags.
func normalizeList(raw string, t grid.ColumnType) string {
	elements := splitList(raw, t)

	folded := make([]string, 0, len(elements))
	for _, e := range elements {
		f := fold(e)
		if f == "" || naEquivalents[f] {
			continue
		}
		if !slices.Contains(folded, f) {
			folded = append(folded, f)
		}
	}

	slices.Sort(folded)
	return strings.Join(folded, "\n")
}

func splitList(raw string, t grid.ColumnType) []string {
	if parsed, err := formatting.Parse[[]string](raw); err == nil {
		return parsed
	}

	lines := strings.Split(raw, "\n")
	elements := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•† \t")

		if t == grid.TypeMultipleTags {
			elements = append(elements, strings.Split(line, ",")...)
			continue
		}
		elements = append(elements, line)
	}
	return elements
}
