// Package pattern compiles OSC address patterns into reusable matchers.
//
// The supported dialect follows OSC 1.0 address pattern matching:
//
//   - '*' matches any run of characters within one address part (never '/')
//   - '?' matches exactly one character within one address part
//   - "[abc]", "[a-z]" match one character from a class; "[!a-z]" negates it
//   - "{foo,bar}" matches any of the comma separated alternatives
//
// Runs of '*' collapse to a single '*', so a pattern never matches across
// part boundaries. Matching is delegated to doublestar, whose glob syntax is
// a superset of the OSC dialect once the pattern is normalized.
package pattern
