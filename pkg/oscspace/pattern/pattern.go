package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern indicates a pattern that cannot be compiled.
var ErrBadPattern = errors.New("malformed address pattern")

// Matcher is a compiled OSC address pattern.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	source string
	glob   string
}

// Compile validates an OSC address pattern and returns its matcher.
func Compile(p string) (*Matcher, error) {
	if p == "" || p[0] != '/' {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrBadPattern, p)
	}

	glob := normalize(p)
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
	}

	return &Matcher{source: p, glob: glob}, nil
}

// MustCompile is like Compile but panics if the pattern is malformed.
func MustCompile(p string) *Matcher {
	m, err := Compile(p)
	if err != nil {
		panic("pattern: " + err.Error())
	}
	return m
}

// Match reports whether address is accepted by the pattern.
func (m *Matcher) Match(address string) bool {
	if m == nil {
		return false
	}
	return doublestar.MatchUnvalidated(m.glob, address)
}

// String returns the pattern the matcher was compiled from.
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.source
}

// normalize rewrites an OSC pattern into doublestar syntax.
// OSC has no escape character, so backslashes are matched literally, and
// "**" has no special meaning, so star runs are collapsed. Only '!' negates
// a class in OSC; a leading '^' is a literal member and gets escaped.
func normalize(p string) string {
	if !strings.ContainsAny(p, `\*^`) {
		return p
	}

	var b strings.Builder
	b.Grow(len(p) + 4)
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '*':
			if i > 0 && p[i-1] == '*' {
				continue
			}
			b.WriteByte(c)
		case '^':
			if i > 0 && p[i-1] == '[' {
				b.WriteString(`\^`)
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
