// Package textutil extracts hashtags, mentions and sponsorship markers
// from post captions.
package textutil

import (
	"regexp"
	"strings"
)

var mentionRe = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

// brandKeywords mark a caption as a paid brand collaboration
var brandKeywords = []string{"#ad", "#sponsored", "#collab", "paid partnership"}

// ExtractHashtags returns the hashtags in a caption, lowercased and without
// the leading '#', in order of appearance. Duplicates are preserved.
func ExtractHashtags(caption string) []string {
	if caption == "" {
		return nil
	}

	var tags []string
	for _, word := range strings.Fields(caption) {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tags = append(tags, strings.ToLower(word[1:]))
		}
	}
	return tags
}

// ExtractMentions returns the @mentions in a caption, lowercased and without
// the leading '@', in order of appearance. Duplicates are preserved.
func ExtractMentions(caption string) []string {
	if caption == "" {
		return nil
	}

	matches := mentionRe.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}

	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, strings.ToLower(m[1]))
	}
	return mentions
}

// IsBrandCollab reports whether a caption contains any sponsorship keyword
func IsBrandCollab(caption string) bool {
	lower := strings.ToLower(caption)
	for _, k := range brandKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
