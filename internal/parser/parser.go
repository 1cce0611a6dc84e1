// Package parser implements title sanitisation and #tag token handling for
// note content.
package parser

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTitle is the placeholder used when a sanitised title comes out empty.
const DefaultTitle = "Untitled"

// tagRe matches a # followed by one or more word characters. Word characters
// are ASCII (\w in RE2); this is deliberate, not inherited.
var tagRe = regexp.MustCompile(`#(\w+)`)

// SanitizeTitle strips every '#' character from s and trims the result, so a
// markdown heading never leaks into a title. An empty result falls back to
// DefaultTitle.
func SanitizeTitle(s string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(s, "#", ""))
	if clean == "" {
		return DefaultTitle
	}
	return clean
}

// DeriveTitle returns the sanitised title when one is given, otherwise a
// title derived from the first line of content.
func DeriveTitle(title, content string) string {
	if strings.TrimSpace(title) != "" {
		return SanitizeTitle(title)
	}
	return SanitizeTitle(FirstLine(content))
}

// FirstLine returns the first line of s, trimmed.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

// Tags extracts every distinct tag token from content, leading '#' stripped,
// in sorted order.
func Tags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	sort.Strings(out)
	return out
}

// tokenRe compiles a pattern matching #tag as a whole-word token.
func tokenRe(tag string) *regexp.Regexp {
	return regexp.MustCompile(`#` + regexp.QuoteMeta(tag) + `\b`)
}

// HasTag reports whether content contains #tag as a standalone token.
// #tagging does not match tag.
func HasTag(content, tag string) bool {
	if tag == "" {
		return false
	}
	return tokenRe(tag).MatchString(content)
}

// RemoveTag removes every #tag token from content, collapsing the
// whitespace that carried it, and trims the result.
func RemoveTag(content, tag string) string {
	if tag == "" {
		return content
	}
	re := regexp.MustCompile(`[ \t]*#` + regexp.QuoteMeta(tag) + `\b`)
	return strings.TrimSpace(re.ReplaceAllString(content, ""))
}
