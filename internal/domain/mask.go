package domain

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)
	repeatedDashes  = regexp.MustCompile(`-+`)
)

// MaskEmail hides all but the first two characters of the local part.
// Values without a domain are returned unchanged.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[1] == "" {
		return email
	}
	local, domain := parts[0], parts[1]
	if len(local) <= 2 {
		return local + "@" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
}

// GenerateItemID derives a slug id from a product name, e.g. "Baby Monitor (v2)" -> "baby-monitor-v2"
func GenerateItemID(name string) string {
	id := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	id = repeatedDashes.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}
