// Package patterns compiles user-supplied ignore patterns once per scan and
// evaluates them from any number of goroutines.
package patterns

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// ruleKind tags how a pattern compiled.
type ruleKind int

const (
	kindGlob ruleKind = iota
	kindRegex
)

type rule struct {
	kind   ruleKind
	source string
	glob   glob.Glob
	regex  *regexp.Regexp

	// rooted matches a leading "**/" against zero directories.
	rooted glob.Glob
}

func (r rule) match(candidate string) bool {
	if r.kind == kindRegex {
		return r.regex.MatchString(candidate)
	}
	return r.glob.Match(candidate) || (r.rooted != nil && r.rooted.Match(candidate))
}

// Cache is an immutable set of compiled ignore rules. Globs are evaluated
// before regexes. A Cache is safe for concurrent use; the zero value and a
// nil *Cache match nothing.
type Cache struct {
	globs   []rule
	regexes []rule
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	logger zerolog.Logger
}

// WithLogger reports discarded patterns at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New compiles patterns. Each pattern is tried as a glob ('/' separated, so
// '*' stays within one segment and '**' crosses segments), then as a regular
// expression. Patterns that compile as neither are dropped. As in gitignore,
// a leading "**/" also matches at the root, so "**/*.log" matches "x.log".
func New(patterns []string, opts ...Option) *Cache {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Cache{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if g, err := glob.Compile(p, '/'); err == nil {
			r := rule{kind: kindGlob, source: p, glob: g}
			if rest, ok := strings.CutPrefix(p, "**/"); ok && rest != "" {
				r.rooted, _ = glob.Compile(rest, '/')
			}
			c.globs = append(c.globs, r)
			continue
		}

		re, err := regexp.Compile(p)
		if err != nil {
			cfg.logger.Debug().Str("pattern", p).Err(err).Msg("discarding ignore pattern")
			continue
		}
		c.regexes = append(c.regexes, rule{kind: kindRegex, source: p, regex: re})
	}

	return c
}

// Matches reports whether any rule matches candidate, which may be a bare
// name or a slash-separated relative path.
func (c *Cache) Matches(candidate string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.globs {
		if r.match(candidate) {
			return true
		}
	}
	for _, r := range c.regexes {
		if r.match(candidate) {
			return true
		}
	}
	return false
}

// MatchesEntry reports whether an entry is ignored by its name or by its
// path relative to the scan root.
func (c *Cache) MatchesEntry(name, relPath string) bool {
	if c.Matches(name) {
		return true
	}
	return relPath != name && c.Matches(relPath)
}

// Len returns the number of compiled rules.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.globs) + len(c.regexes)
}

// Globs returns the patterns that compiled as globs.
func (c *Cache) Globs() []string {
	return sources(c, kindGlob)
}

// Regexes returns the patterns that compiled as regular expressions.
func (c *Cache) Regexes() []string {
	return sources(c, kindRegex)
}

func sources(c *Cache, kind ruleKind) []string {
	if c == nil {
		return nil
	}
	rules := c.globs
	if kind == kindRegex {
		rules = c.regexes
	}
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.source)
	}
	return out
}
