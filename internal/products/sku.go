package product

import (
	"fmt"
	"regexp"
	"strings"
)

const defaultSKUPrefix = "PRD"

// GenerateSKU builds TITLE-COL-SIZE, e.g. "Basic Cotton Tee", "Black", "M" -> BCT-BLA-M.
func GenerateSKU(title, color, size string) string {
	var initials strings.Builder
	for _, word := range strings.Fields(title) {
		initials.WriteString(string([]rune(word)[0]))
	}
	prefix := strings.ToUpper(initials.String())
	if r := []rune(prefix); len(r) > 3 {
		prefix = string(r[:3])
	}
	if prefix == "" {
		prefix = defaultSKUPrefix
	}

	colorCode := []rune(strings.TrimSpace(color))
	if len(colorCode) > 3 {
		colorCode = colorCode[:3]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, strings.ToUpper(string(colorCode)), strings.ToUpper(strings.TrimSpace(size)))
}

// nextFree appends -2, -3... to base until taken reports the candidate as free.
func nextFree(base string, taken func(string) bool) string {
	candidate := base
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases the title and collapses every non-alphanumeric run into "-".
func Slugify(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "product"
	}
	return slug
}

