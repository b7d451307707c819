package oscspace

// AddressType classifies a candidate OSC address string.
type AddressType int

const (
	// Invalid is neither a well-formed address nor a well-formed pattern.
	Invalid AddressType = iota

	// Pattern contains at least one pattern metacharacter.
	Pattern

	// Address is a literal address that matches exactly one string.
	Address
)

// String returns the type name.
func (t AddressType) String() string {
	switch t {
	case Pattern:
		return "pattern"
	case Address:
		return "address"
	default:
		return "invalid"
	}
}

// patternChars marks the OSC pattern metacharacters.
var patternChars [256]bool

// forbiddenChars marks bytes that may not appear in any address or pattern.
var forbiddenChars [256]bool

func init() {
	for _, c := range []byte("*?[]{}") {
		patternChars[c] = true
	}
	for c := 0; c < 0x20; c++ {
		forbiddenChars[c] = true
	}
	forbiddenChars[' '] = true
	forbiddenChars['#'] = true
	forbiddenChars[0x7f] = true
}

// Classify reports whether s is a literal address, a pattern, or invalid.
// It never panics and has no side effects.
func Classify(s string) AddressType {
	if len(s) == 0 || s[0] != '/' {
		return Invalid
	}

	typ := Address
	for i := 0; i < len(s); i++ {
		c := s[i]
		if forbiddenChars[c] {
			return Invalid
		}
		if patternChars[c] {
			typ = Pattern
		}
	}
	return typ
}

// IsValidAddress reports whether s is a well-formed literal address.
func IsValidAddress(s string) bool {
	return Classify(s) == Address
}

// IsPattern reports whether s is a well-formed address pattern.
func IsPattern(s string) bool {
	return Classify(s) == Pattern
}
