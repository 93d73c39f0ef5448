package gateway

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceRe    = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")
	orderedRe  = regexp.MustCompile(`^\d+\.\s`)
	listMarkRe = regexp.MustCompile(`^[-*]\s*|^\d+\.\s*`)
)

// ExtractJSON parses text as a JSON object, unwrapping a surrounding
// markdown code fence first. ok is false when text is not a JSON object.
func ExtractJSON(text string) (obj map[string]any, ok bool) {
	s := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(s); m != nil && m[2] != "" {
		s = strings.TrimSpace(m[2])
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// ExtractListItems returns the items of every markdown list line in text.
// Bulleted ("- ", "* ") and numbered ("1. ") lines count; markers are
// stripped and blank items dropped.
func ExtractListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") && !orderedRe.MatchString(line) {
			continue
		}
		item := strings.TrimSpace(listMarkRe.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ExtractIdeas pulls idea texts out of a model reply. A JSON object with
// an "ideas" array wins, even an empty one; non-string entries are
// skipped. Otherwise markdown list items are used. The result is never nil.
func ExtractIdeas(text string) []string {
	if obj, ok := ExtractJSON(text); ok {
		if raw, ok := obj["ideas"].([]any); ok {
			ideas := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					ideas = append(ideas, s)
				}
			}
			return ideas
		}
	}
	if items := ExtractListItems(text); items != nil {
		return items
	}
	return []string{}
}
