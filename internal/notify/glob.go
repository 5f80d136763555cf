package notify

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher selects the players to notify by lower-cased display name.
type Matcher func(name string) bool

// NewGlobMatcher builds a Matcher from glob patterns. A name is rejected if
// any "!"-prefixed pattern matches it, then accepted if any other pattern
// matches it. Without positive patterns every remaining name is accepted.
func NewGlobMatcher(patterns []string) (Matcher, error) {
	var include, exclude []glob.Glob
	for _, pattern := range patterns {
		negated := strings.HasPrefix(pattern, "!")
		pattern = strings.ToLower(strings.TrimPrefix(pattern, "!"))

		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if negated {
			exclude = append(exclude, g)
		} else {
			include = append(include, g)
		}
	}

	return func(name string) bool {
		name = strings.ToLower(name)
		for _, g := range exclude {
			if g.Match(name) {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, g := range include {
			if g.Match(name) {
				return true
			}
		}
		return false
	}, nil
}
