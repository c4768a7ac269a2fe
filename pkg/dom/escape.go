package dom

import "strings"

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
	commentEscaper = strings.NewReplacer("--", "- -")
)

// escapeText escapes character data for inclusion between tags.
func escapeText(s string) string { return textEscaper.Replace(s) }

// escapeAttr escapes an attribute value for inclusion inside double quotes.
// Whitespace control characters are encoded so the value survives reparsing.
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
