// Package redaction scrubs committed secrets out of evidence snippets.
// Audited repositories routinely contain live credentials checked in by
// mistake; quoting those snippets verbatim in a persisted verdict would
// republish them. The engine replaces each secret with a stable
// placeholder so identical secrets stay correlatable across a report
// without being recoverable from it.
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// rule pairs a secret class with the pattern that detects it. The class
// name ends up in the placeholder so a reader knows what kind of
// credential was removed.
type rule struct {
	class   string
	pattern *regexp.Regexp
}

// Engine performs regex-based secret detection over snippet text.
type Engine struct {
	rules []rule
}

// NewEngine creates a redaction engine with the default secret classes.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// Redact replaces every detected secret with its placeholder. The same
// secret always maps to the same placeholder, even across calls.
func (e *Engine) Redact(input string) (string, error) {
	replacements := make(map[string]string)

	for _, r := range e.rules {
		for _, match := range r.pattern.FindAllString(input, -1) {
			if _, seen := replacements[match]; seen {
				continue
			}
			replacements[match] = placeholder(r.class, match)
		}
	}

	result := input
	for secret, mask := range replacements {
		result = strings.ReplaceAll(result, secret, mask)
	}
	return result, nil
}

// IsRedacted reports whether content already carries redaction markers.
func (e *Engine) IsRedacted(content string) bool {
	return strings.Contains(content, "<REDACTED:")
}

// placeholder derives a stable mask from the secret itself, so reruns
// of the same audit produce byte-identical evidence dumps.
func placeholder(class, secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<REDACTED:%s:%s>", class, hex.EncodeToString(hash[:])[:8])
}

func defaultRules() []rule {
	specs := []struct {
		class   string
		pattern string
	}{
		{"anthropic-key", `sk-ant-[a-zA-Z0-9\-]{20,}`},
		{"openai-key", `sk-[a-zA-Z0-9]{20,}`},
		{"aws-key-id", `AKIA[0-9A-Z]{16}`},
		{"aws-secret", `aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`},
		{"github-token", `gh[posr]_[a-zA-Z0-9]{20,}`},
		{"google-key", `AIza[0-9A-Za-z\-_]{35}`},
		{"jwt", `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`},
		{"private-key", `-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`},
		{"slack-token", `xox[baprs]-[a-zA-Z0-9\-]{10,}`},
		{"bearer-token", `Bearer\s+[a-zA-Z0-9_\-\.]+`},
	}

	rules := make([]rule, 0, len(specs))
	for _, spec := range specs {
		rules = append(rules, rule{class: spec.class, pattern: regexp.MustCompile(spec.pattern)})
	}
	return rules
}
