package output

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatHeader returns a markdown heading. Levels outside 1-6 are clamped.
func FormatHeader(level int, text string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item "- **key:** value".
func FormatKeyValue(key, value string) string {
	return "- **" + key + ":** " + value
}

// FormatCodeBlock returns a fenced markdown code block.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}

// Title returns s in title case: "rotation field" -> "Rotation Field".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// FormatFloat formats v with up to prec decimals and no trailing zeros.
// Negative zero prints as 0.
func FormatFloat(v float64, prec int) string {
	if v == 0 {
		v = 0
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// FormatVec formats a coordinate tuple "(x, y, z)".
func FormatVec(prec int, vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatFloat(v, prec)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
