package middleware

import (
	"fmt"
	"regexp"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// Mask replaces redacted answer values.
const Mask = "***"

// DefaultPIIPatterns match the answers that identify third parties or health details.
var DefaultPIIPatterns = []string{
	`^emergency_contacts$`,
	`^professionals$`,
	`^academic_history$`,
	`^anxiety_triggers$`,
}

// Redactor masks the answers whose step names match its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the patterns.
func NewRedactor(patterns []string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		r.patterns[i] = re
	}
	return r, nil
}

// Redact returns a copy of s with sensitive answers masked. s is not modified.
func (r *Redactor) Redact(s *domain.Session) *domain.Session {
	out := s.Clone()
	out.Answers = deepCopyMap(s.Answers)
	maskMap(out.Answers, r.patterns)
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}
		if sub, ok := v.(map[string]any); ok {
			maskMap(sub, patterns)
		}
	}
}
