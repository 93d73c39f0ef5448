// Package secrets redacts credentials from text before it leaves the
// process in an export.
package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultRedaction replaces every detected credential.
const DefaultRedaction = "[REDACTED]"

// Scrubber detects and redacts credentials. A nil *Scrubber returns text
// unchanged.
type Scrubber struct {
	rules       []compiledRule
	replacement string
}

type compiledRule struct {
	id       string
	pattern  *regexp.Regexp
	keywords []string
}

// span is a byte range to replace.
type span struct {
	start, end int
}

// New compiles rules. An empty rule set falls back to DefaultRules.
func New(rules ...Rule) (*Scrubber, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	s := &Scrubber{
		rules:       make([]compiledRule, 0, len(rules)),
		replacement: DefaultRedaction,
	}
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: ID is required", i)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %s: pattern is required", r.ID)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", r.ID, err)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kws = append(kws, strings.ToLower(kw))
		}
		s.rules = append(s.rules, compiledRule{id: r.ID, pattern: re, keywords: kws})
	}
	return s, nil
}

// MustNew is New for rule sets known to compile.
func MustNew(rules ...Rule) *Scrubber {
	s, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Result is the outcome of one Scrub call. Matched values are never kept.
type Result struct {
	Text   string
	ByRule map[string]int
}

// Total is the number of matches across all rules.
func (r Result) Total() int {
	n := 0
	for _, c := range r.ByRule {
		n += c
	}
	return n
}

// Scrub replaces every credential in text.
func (s *Scrubber) Scrub(text string) Result {
	res := Result{Text: text, ByRule: map[string]int{}}
	if s == nil || text == "" {
		return res
	}

	lower := strings.ToLower(text)
	var spans []span
	for _, rule := range s.rules {
		if !hasKeyword(lower, rule.keywords) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: m[0], end: m[1]})
			res.ByRule[rule.id]++
		}
	}
	if len(spans) == 0 {
		return res
	}

	var b strings.Builder
	last := 0
	for _, sp := range merge(spans) {
		b.WriteString(text[last:sp.start])
		b.WriteString(s.replacement)
		last = sp.end
	}
	b.WriteString(text[last:])
	res.Text = b.String()
	return res
}

// String is Scrub for callers that only need the text.
func (s *Scrubber) String(text string) string {
	return s.Scrub(text).Text
}

func hasKeyword(lower string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// merge sorts spans and joins the overlapping ones.
func merge(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := []span{spans[0]}
	for _, cur := range spans[1:] {
		last := &out[len(out)-1]
		if cur.start <= last.end {
			if cur.end > last.end {
				last.end = cur.end
			}
			continue
		}
		out = append(out, cur)
	}
	return out
}
