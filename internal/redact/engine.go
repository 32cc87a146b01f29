package redact

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Engine scrubs user-specified names and terms from rendered text before it
// reaches the UI. Rules come from a plain-text file, one per line:
//
//	Jane Doe => [redacted]
//	re:\b\d{3}-\d{4}-\d{4}\b => [phone]
//
// Plain rules match case-insensitively; the re: form is a raw Go regexp.
// A missing or empty rules file yields a passthrough engine.
type Engine struct {
	rules []rule
}

type rule struct {
	re          *regexp.Regexp
	replacement string
}

func NewEngine(path string) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return &Engine{}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{}, nil
		}
		return nil, fmt.Errorf("failed to read redaction rules %q: %w", path, err)
	}

	rules, err := parseRules(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redaction rules %q: %w", path, err)
	}
	return &Engine{rules: rules}, nil
}

// Apply runs every rule once, in file order.
func (e *Engine) Apply(text string) string {
	for _, r := range e.rules {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return text
}

// RuleCount reports how many rules are loaded.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

func parseRules(contents string) ([]rule, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]rule, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=>", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"from => to\"", index+1)
		}
		from := strings.TrimSpace(parts[0])
		replacement := strings.TrimSpace(parts[1])
		if from == "" {
			return nil, fmt.Errorf("line %d: rule source cannot be empty", index+1)
		}

		var re *regexp.Regexp
		var err error
		if pattern, ok := strings.CutPrefix(from, "re:"); ok {
			re, err = regexp.Compile(pattern)
		} else {
			re, err = regexp.Compile("(?i)" + regexp.QuoteMeta(from))
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		rules = append(rules, rule{re: re, replacement: replacement})
	}

	return rules, nil
}
