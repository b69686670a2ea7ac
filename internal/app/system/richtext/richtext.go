// Package richtext consumes the rich-text HTML wire format that the
// client editor emits and the message store persists.
//
// The format is ordinary sanitized HTML with one structural marker:
// a mention is an element carrying a data-mention-user-id attribute
// whose value is the mentioned user's hex ObjectID, e.g.
//
//	<span data-mention-user-id="64f1b2c3d4e5f60718293a4b">@Bob</span>
//
// Mention extraction reads only this attribute; the visible "@name"
// text is presentation and never parsed. The editor producing the
// format is a black box — this package is the single consumer of the
// contract.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mentionAttr matches the machine-readable mention marker. Attribute
// order within the tag does not matter; only the attribute itself is
// anchored.
var mentionAttr = regexp.MustCompile(`data-mention-user-id\s*=\s*"([0-9a-fA-F]{24})"`)

var stripPolicy = bluemonday.StrictPolicy()

// MentionUserIDs returns the set of user IDs mentioned in body, in
// first-occurrence order. Duplicate mentions of the same user collapse
// to one entry. Malformed IDs are skipped.
func MentionUserIDs(body string) []primitive.ObjectID {
	matches := mentionAttr.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[primitive.ObjectID]bool, len(matches))
	var ids []primitive.ObjectID
	for _, m := range matches {
		id, err := primitive.ObjectIDFromHex(strings.ToLower(m[1]))
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// PlainText strips all markup from body, unescapes entities, collapses
// runs of whitespace to single spaces, and trims the result.
func PlainText(body string) string {
	text := stripPolicy.Sanitize(body)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// Preview returns the plain text of body truncated to at most maxLen
// runes. Truncation is rune-safe.
func Preview(body string, maxLen int) string {
	text := PlainText(body)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
