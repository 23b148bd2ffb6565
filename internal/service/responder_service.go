package service

import (
	"faqbot_backend/internal/config"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// QueryResponder maps a normalized (lower-cased) query to a response and
// the FAQ keywords it matched. Greeting and fallback responses match no
// keywords and are never tracked as analytics.
type QueryResponder interface {
	Respond(username, query string) (response string, matched []string)
}

type faqPattern struct {
	keyword string
	answer  string
	re      *regexp.Regexp
}

// FAQResponder answers from a fixed keyword vocabulary using whole-word,
// case-insensitive matching. The vocabulary is compiled up front and can
// be swapped atomically when the config file changes.
type FAQResponder struct {
	mu       sync.RWMutex
	greetRE  *regexp.Regexp
	patterns []faqPattern
	fallback string
}

func NewFAQResponder(cfg config.FAQConfig) (*FAQResponder, error) {
	r := &FAQResponder{}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload recompiles the vocabulary. On error the previous vocabulary
// stays in effect.
func (r *FAQResponder) Reload(cfg config.FAQConfig) error {
	var greetRE *regexp.Regexp
	if len(cfg.Greetings) > 0 {
		quoted := make([]string, 0, len(cfg.Greetings))
		for _, g := range cfg.Greetings {
			quoted = append(quoted, regexp.QuoteMeta(g))
		}
		re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return fmt.Errorf("compile greeting pattern: %w", err)
		}
		greetRE = re
	}

	patterns := make([]faqPattern, 0, len(cfg.Entries))
	for _, e := range cfg.Entries {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(e.Keyword) + `\b`)
		if err != nil {
			return fmt.Errorf("compile keyword %q: %w", e.Keyword, err)
		}
		patterns = append(patterns, faqPattern{keyword: e.Keyword, answer: e.Answer, re: re})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.greetRE = greetRE
	r.patterns = patterns
	r.fallback = cfg.Fallback
	return nil
}

// Respond answers in vocabulary order: every matching keyword contributes
// its canned answer, joined by single spaces. Greetings short-circuit to
// a personalized reply; an unmatched query gets the fixed fallback. Both
// return an empty matched set.
func (r *FAQResponder) Respond(username, query string) (string, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.greetRE != nil && r.greetRE.MatchString(query) {
		return fmt.Sprintf("Hello, %s! How can I assist you today?", username), nil
	}

	var answers []string
	var matched []string
	for _, p := range r.patterns {
		if p.re.MatchString(query) {
			answers = append(answers, p.answer)
			matched = append(matched, p.keyword)
		}
	}

	if len(answers) == 0 {
		return r.fallback, nil
	}
	return strings.Join(answers, " "), matched
}

// Keywords lists the vocabulary in order, for the chat insights payload.
func (r *FAQResponder) Keywords() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keywords := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		keywords = append(keywords, p.keyword)
	}
	return keywords
}
