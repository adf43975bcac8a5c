/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package manifest parses the key/value text format used by JAR manifest
// and index files: sections separated by a blank line, each holding
// "Name: value" pairs, where a value may continue onto the next line if
// that line starts with a single space.
package manifest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Manifest is the parsed sequence of sections. Section 0 is the main
// attributes; later sections (in a JAR's per-entry manifest) are keyed by
// their own "Name" attribute.
type Manifest struct {
	sections []map[string]string
}

// Section returns the attributes of the section at index, or nil if out of
// range.
func (m Manifest) Section(index int) map[string]string {
	if index < 0 || index >= len(m.sections) {
		return nil
	}
	return m.sections[index]
}

// Get looks up a key in the main (first) section.
func (m Manifest) Get(key string) (string, bool) {
	return m.GetIn(0, key)
}

// GetIn looks up a key within a specific section.
func (m Manifest) GetIn(index int, key string) (string, bool) {
	sec := m.Section(index)
	if sec == nil {
		return "", false
	}
	v, ok := sec[key]
	return v, ok
}

// Len reports the number of sections.
func (m Manifest) Len() int { return len(m.sections) }

// DuplicateKeyWarning is reported (not fatal) when a section repeats a key.
type DuplicateKeyWarning struct {
	Section int
	Key     string
}

// ParseError reports a malformed manifest, with the byte offset of the
// failure for diagnostics.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest: %s at offset %d", e.Reason, e.Offset)
}

// Parse reads raw manifest bytes, without reporting duplicate-key
// warnings. Use ParseWithWarnings to observe them.
func Parse(raw []byte) (Manifest, error) {
	m, _, err := ParseWithWarnings(raw)
	return m, err
}

// ParseWithWarnings parses raw manifest bytes and additionally returns any
// duplicate-key warnings encountered (non-fatal: the later value wins).
func ParseWithWarnings(raw []byte) (Manifest, []DuplicateKeyWarning, error) {
	s := normalizeNewlines(string(raw))
	var result Manifest
	var warnings []DuplicateKeyWarning

	pos := 0
	for {
		section := make(map[string]string)
		sectionIndex := len(result.sections)

		if rest, ok := stripNewline(s[pos:]); ok {
			pos = len(s) - len(rest)
		} else {
			for {
				name, afterName, err := parseName(s, pos)
				if err != nil {
					return Manifest{}, nil, err
				}
				afterColon, err := expect(s, afterName, ':')
				if err != nil {
					return Manifest{}, nil, err
				}
				afterSpace, err := expect(s, afterColon, ' ')
				if err != nil {
					return Manifest{}, nil, err
				}
				value, afterValue, err := parseValue(s, afterSpace)
				if err != nil {
					return Manifest{}, nil, err
				}

				if _, dup := section[name]; dup {
					warnings = append(warnings, DuplicateKeyWarning{Section: sectionIndex, Key: name})
				}
				section[name] = value

				pos = afterValue
				if rest, ok := stripNewline(s[pos:]); ok {
					pos = len(s) - len(rest)
					break
				}
			}
		}

		result.sections = append(result.sections, section)

		if pos >= len(s) {
			break
		}
	}

	return result, warnings, nil
}

// Bytes reserializes m back into manifest text: each section's "Name:
// value" pairs (keys sorted, for deterministic output — Parse discards
// original key order, keeping only a map), followed by the blank line
// that both separates sections and terminates the last one, matching
// what Parse expects at end of input. Parsing Bytes' own output
// reproduces every key/value pair and section boundary in m, though not
// necessarily byte-for-byte the text m itself was first parsed from
// (key order, and any line a value was wrapped across, are not
// preserved — Manifest never recorded either).
func (m Manifest) Bytes() []byte {
	var buf bytes.Buffer
	for _, sec := range m.sections {
		keys := make([]string, 0, len(sec))
		for k := range sec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(sec[k])
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// String is Bytes as a string, for callers that want to write or log a
// manifest without an intermediate []byte.
func (m Manifest) String() string {
	return string(m.Bytes())
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func stripNewline(s string) (string, bool) {
	if strings.HasPrefix(s, "\n") {
		return s[1:], true
	}
	return s, false
}

func expect(s string, pos int, c byte) (int, error) {
	if pos >= len(s) || s[pos] != c {
		return pos, &ParseError{Offset: pos, Reason: fmt.Sprintf("expected %q", c)}
	}
	return pos + 1, nil
}

func isNameChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func parseName(s string, pos int) (name string, next int, err error) {
	if pos >= len(s) {
		return "", pos, &ParseError{Offset: pos, Reason: "expected a name, got end of input"}
	}
	if !isAlnum(s[pos]) {
		return "", pos, &ParseError{Offset: pos, Reason: fmt.Sprintf("name must start with an alphanumeric character, got %q", s[pos])}
	}
	end := pos + 1
	for end < len(s) && isNameChar(s[end]) {
		end++
	}
	return s[pos:end], end, nil
}

// parseValue reads one logical value: a line of text, continued onto the
// next physical line if it begins with exactly one leading space.
func parseValue(s string, pos int) (value string, next int, err error) {
	line, afterLine, err := parseLine(s, pos)
	if err != nil {
		return "", pos, err
	}
	if afterLine < len(s) && s[afterLine] == ' ' {
		cont, afterCont, err := parseLine(s, afterLine+1)
		if err != nil {
			return "", pos, err
		}
		return line + cont, afterCont, nil
	}
	return line, afterLine, nil
}

func parseLine(s string, pos int) (line string, next int, err error) {
	start := pos
	for i := pos; i < len(s); i++ {
		if s[i] == 0 {
			return "", pos, &ParseError{Offset: i, Reason: "value contained a null byte"}
		}
		if s[i] == '\n' {
			return s[start:i], i + 1, nil
		}
	}
	return "", pos, &ParseError{Offset: len(s), Reason: "expected newline before end of input"}
}
