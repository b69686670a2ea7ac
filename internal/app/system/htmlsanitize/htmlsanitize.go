// Package htmlsanitize sanitizes rich-text HTML message bodies.
//
// Message bodies arrive from the client editor as HTML. We sanitize at
// ingest (before storage) so everything in the database is already
// safe to render. The policy allows the formatting the editor can
// produce — text styles, lists, tables, code, headings, links — plus
// the mention span wire format:
//
//	<span data-mention-user-id="<hex user id>">@Display Name</span>
//
// which downstream code (richtext.MentionUserIDs) parses for
// notification fan-out.
package htmlsanitize

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Text formatting beyond the UGC defaults.
	p.AllowElements("u", "s", "sub", "sup", "mark")

	// Tables, with the structural attributes editors emit.
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")

	// Mention spans. The data attribute is the machine-readable mention
	// marker; stripping it would break notification fan-out.
	p.AllowAttrs("data-mention-user-id", "class").OnElements("span")

	return p
}

// Sanitize returns body with unsafe markup removed. Safe formatting,
// links, and mention spans are preserved.
func Sanitize(body string) string {
	return policy.Sanitize(body)
}

// SanitizeToHTML sanitizes body and returns it as template.HTML for
// direct rendering.
func SanitizeToHTML(body string) template.HTML {
	return template.HTML(Sanitize(body)) // #nosec G203 -- sanitized above
}
