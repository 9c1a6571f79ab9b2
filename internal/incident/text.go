package incident

import (
	"regexp"
	"strings"
)

// The extraction rules are deliberately simple pattern matches rather than an
// HTML parser; published output depends on them byte for byte.
var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	statusPattern     = regexp.MustCompile(`<b>Status:\s*([^<]+)</b>`)
	productPattern    = regexp.MustCompile(`<li>([^<]+)</li>`)
)

const (
	affectedComponentsMarker = "Affected components"
	operationalSuffix        = " (Operational)"
)

// StripHTML replaces every tag with a space, collapses whitespace runs to a
// single space and trims the result. Entities are not decoded.
func StripHTML(raw string) string {
	s := tagPattern.ReplaceAllString(raw, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractStatus returns the trimmed label of the first <b>Status: ...</b> tag.
func ExtractStatus(description string) (string, bool) {
	m := statusPattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	label := strings.TrimSpace(m[1])
	if label == "" {
		return "", false
	}
	return label, true
}

// NormalizeStatus lowercases a label and joins its words with underscores.
func NormalizeStatus(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// ExtractProducts returns the text of every <li> item, minus any trailing
// "(Operational)" annotation. The result is never nil.
func ExtractProducts(description string) []string {
	matches := productPattern.FindAllStringSubmatch(description, -1)
	products := make([]string, 0, len(matches))
	for _, m := range matches {
		products = append(products, strings.TrimSpace(strings.ReplaceAll(m[1], operationalSuffix, "")))
	}
	return products
}

// CleanMessage derives the message body from a raw description. statusLabel,
// when non-empty, is removed where it is echoed as "Status: <label>".
func CleanMessage(description, statusLabel string) string {
	msg := StripHTML(description)
	if idx := strings.Index(msg, affectedComponentsMarker); idx >= 0 {
		msg = msg[:idx]
	}
	if statusLabel != "" {
		msg = strings.ReplaceAll(msg, "Status: "+statusLabel, "")
	}
	return Truncate(strings.TrimSpace(msg), MaxMessageLength)
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
