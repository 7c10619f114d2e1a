package reconcile

import "strings"

// Slugify converts a repository name to the identifier used as the CI
// pipeline key. The result contains only lowercase ASCII letters, digits
// and hyphens, with no leading or trailing hyphen. Slugify is total, any
// input string yields a valid (possibly empty) slug.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
