// Package normalize provides canonical forms for user-supplied strings
// so lookups and comparisons behave consistently.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method value.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Query lowercases and trims a search query. An all-whitespace query
// normalizes to the empty string, which search treats as "no query".
func Query(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ChannelName trims a channel name. Case is preserved for display; the
// case-insensitive uniqueness key is derived separately (name_ci).
func ChannelName(s string) string {
	return strings.TrimSpace(s)
}
