package models

import (
	"regexp"
	"sort"
	"strings"
)

// Derived transport fields are pure functions of body text. They run at save
// time only; nothing here mutates state.

var (
	tagPattern     = regexp.MustCompile(`(^|\s)#([\p{L}\p{N}_-]+)`)
	mentionPattern = regexp.MustCompile(`(^|\s)@([\p{L}\p{N}_.-]+)`)
	markupPattern  = regexp.MustCompile(`<[^>]*>|[*_~]{1,2}`)
)

// ExtractTags returns the distinct #tags found in body, lowercased and
// sorted. A tag attaches the entry to stream-style views server-side.
func ExtractTags(body string) []string {
	return extract(tagPattern, body)
}

// ExtractMentions returns the distinct @mentions found in body, lowercased
// and sorted.
func ExtractMentions(body string) []string {
	return extract(mentionPattern, body)
}

func extract(re *regexp.Regexp, body string) []string {
	matches := re.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		seen[strings.ToLower(m[2])] = struct{}{}
	}
	result := make([]string, 0, len(seen))
	for v := range seen {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// StripBody removes lightweight markup and surrounding whitespace so empty
// checks see through formatting left behind by the editor surface.
func StripBody(body string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(body, ""))
}
