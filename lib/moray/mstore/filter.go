package mstore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ValentinKolb/moray/lib/moray"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Filter AST
// --------------------------------------------------------------------------

type filterOp int

const (
	filterAnd filterOp = iota
	filterOr
	filterNot
	filterEqual
	filterPresent
	filterSubstring
	filterGreaterOrEqual
	filterLessOrEqual
)

// filter is one node of a parsed LDAP style search filter
type filter struct {
	op       filterOp
	attr     string
	value    string   // unescaped assertion value
	parts    []string // substring pieces around the '*' wildcards
	children []*filter
}

// --------------------------------------------------------------------------
// Parser
// --------------------------------------------------------------------------

// parseFilter parses a search filter such as "(&(color=red)(size>=3))".
// The outer parentheses may be omitted for a single comparison ("color=red").
func parseFilter(input string) (*filter, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty filter")
	}
	if input[0] != '(' {
		input = "(" + input + ")"
	}

	p := &filterParser{input: input}
	f, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected trailing input")
	}
	return f, nil
}

const (
	// maxFilterDepth bounds the nesting of &, | and ! groups
	maxFilterDepth = 64
	// maxErrorInput is the number of input bytes quoted in parse errors
	maxErrorInput = 64
)

type filterParser struct {
	input string
	pos   int
	depth int
}

func (p *filterParser) errorf(format string, args ...interface{}) error {
	input := p.input
	if len(input) > maxErrorInput {
		input = input[:maxErrorInput] + "..."
	}
	return fmt.Errorf("%s at position %d of %q", fmt.Sprintf(format, args...), p.pos, input)
}

func (p *filterParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *filterParser) consume(c byte) bool {
	if p.peek() != c {
		return false
	}
	p.pos++
	return true
}

func (p *filterParser) parseFilter() (*filter, error) {
	if !p.consume('(') {
		return nil, p.errorf("expected '('")
	}

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxFilterDepth {
		return nil, p.errorf("filter nested deeper than %d levels", maxFilterDepth)
	}

	var f *filter
	var err error
	switch p.peek() {
	case '&':
		p.pos++
		f, err = p.parseList(filterAnd)
	case '|':
		p.pos++
		f, err = p.parseList(filterOr)
	case '!':
		p.pos++
		var child *filter
		child, err = p.parseFilter()
		f = &filter{op: filterNot, children: []*filter{child}}
	default:
		f, err = p.parseItem()
	}
	if err != nil {
		return nil, err
	}

	if !p.consume(')') {
		return nil, p.errorf("expected ')'")
	}
	return f, nil
}

func (p *filterParser) parseList(op filterOp) (*filter, error) {
	f := &filter{op: op}
	for p.peek() == '(' {
		child, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		f.children = append(f.children, child)
	}
	if len(f.children) == 0 {
		return nil, p.errorf("empty filter list")
	}
	return f, nil
}

func (p *filterParser) parseItem() (*filter, error) {
	start := p.pos
	for p.pos < len(p.input) && !strings.ContainsRune("=<>~()", rune(p.input[p.pos])) {
		p.pos++
	}
	attr := strings.TrimSpace(p.input[start:p.pos])
	if attr == "" {
		return nil, p.errorf("missing attribute")
	}

	f := &filter{attr: attr}
	rest := p.input[p.pos:]
	switch {
	case strings.HasPrefix(rest, ">="):
		f.op = filterGreaterOrEqual
		p.pos += 2
	case strings.HasPrefix(rest, "<="):
		f.op = filterLessOrEqual
		p.pos += 2
	case strings.HasPrefix(rest, "~="):
		// approximate matching is treated as equality
		f.op = filterEqual
		p.pos += 2
	case strings.HasPrefix(rest, "="):
		f.op = filterEqual
		p.pos++
	default:
		return nil, p.errorf("expected comparison operator")
	}

	start = p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ')' {
		if p.input[p.pos] == '(' {
			return nil, p.errorf("unescaped '(' in value")
		}
		p.pos++
	}
	raw := p.input[start:p.pos]

	if f.op == filterEqual && strings.Contains(raw, "*") {
		if raw == "*" {
			f.op = filterPresent
			return f, nil
		}
		f.op = filterSubstring
		for _, part := range strings.Split(raw, "*") {
			unescaped, err := unescapeFilterValue(part)
			if err != nil {
				return nil, p.errorf("%v", err)
			}
			f.parts = append(f.parts, unescaped)
		}
		return f, nil
	}

	value, err := unescapeFilterValue(raw)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	f.value = value
	return f, nil
}

// unescapeFilterValue resolves the \XX hex escapes of an assertion value
func unescapeFilterValue(raw string) (string, error) {
	if !strings.Contains(raw, `\`) {
		return raw, nil
	}

	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			sb.WriteByte(raw[i])
			continue
		}
		if i+2 >= len(raw) {
			return "", fmt.Errorf("incomplete escape in %q", raw)
		}
		decoded, err := hex.DecodeString(raw[i+1 : i+3])
		if err != nil {
			return "", fmt.Errorf("invalid escape in %q", raw)
		}
		sb.Write(decoded)
		i += 2
	}
	return sb.String(), nil
}

// --------------------------------------------------------------------------
// Evaluation
// --------------------------------------------------------------------------

// attributes returns every attribute the filter refers to
func (f *filter) attributes() []string {
	if f.attr != "" {
		return []string{f.attr}
	}
	var attrs []string
	for _, child := range f.children {
		attrs = append(attrs, child.attributes()...)
	}
	return attrs
}

// validate checks the assertion values against the declared index types
func (f *filter) validate(index moray.IndexSchema) error {
	for _, child := range f.children {
		if err := child.validate(index); err != nil {
			return err
		}
	}
	if f.attr == "" || f.op == filterPresent || f.op == filterSubstring {
		return nil
	}

	switch attrType(f.attr, index) {
	case moray.IndexTypeNumber:
		if _, err := strconv.ParseFloat(f.value, 64); err != nil {
			return fmt.Errorf("%s is a number, %q is not", f.attr, f.value)
		}
	case moray.IndexTypeBoolean:
		if _, err := strconv.ParseBool(f.value); err != nil {
			return fmt.Errorf("%s is a boolean, %q is not", f.attr, f.value)
		}
	}
	return nil
}

// matches reports whether the record satisfies the filter
func (f *filter) matches(record *ObjectRecord, index moray.IndexSchema) bool {
	switch f.op {
	case filterAnd:
		for _, child := range f.children {
			if !child.matches(record, index) {
				return false
			}
		}
		return true
	case filterOr:
		for _, child := range f.children {
			if child.matches(record, index) {
				return true
			}
		}
		return false
	case filterNot:
		return !f.children[0].matches(record, index)
	}

	value, ok := lookupAttribute(record, f.attr)
	if !ok || value == nil {
		return false
	}

	// Array values match if any element matches
	if values, isArray := value.([]interface{}); isArray {
		for _, v := range values {
			if f.matchValue(v, index) {
				return true
			}
		}
		return false
	}
	return f.matchValue(value, index)
}

func (f *filter) matchValue(value interface{}, index moray.IndexSchema) bool {
	switch f.op {
	case filterPresent:
		return value != nil
	case filterSubstring:
		return matchSubstring(stringify(value), f.parts)
	}

	cmp, ok := compareAssertion(value, f.value, attrType(f.attr, index))
	if !ok {
		return false
	}
	switch f.op {
	case filterEqual:
		return cmp == 0
	case filterGreaterOrEqual:
		return cmp >= 0
	case filterLessOrEqual:
		return cmp <= 0
	}
	return false
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// attrType returns the declared type of an attribute, internal attributes included
func attrType(attr string, index moray.IndexSchema) string {
	switch attr {
	case "_id", "_mtime":
		return moray.IndexTypeNumber
	case "_key", "_etag":
		return moray.IndexTypeString
	}
	if field, ok := index[attr]; ok {
		return field.Type
	}
	return ""
}

// isInternalAttribute reports whether attr is object metadata instead of a value field
func isInternalAttribute(attr string) bool {
	switch attr {
	case "_id", "_mtime", "_key", "_etag":
		return true
	}
	return false
}

func lookupAttribute(record *ObjectRecord, attr string) (interface{}, bool) {
	switch attr {
	case "_id":
		return float64(record.ID), true
	case "_mtime":
		return float64(record.Mtime), true
	case "_key":
		return record.Key, true
	case "_etag":
		return record.Etag, true
	}
	value, ok := record.Value[attr]
	return value, ok
}

// compareAssertion compares a stored value with an assertion value.
// The boolean is false if the two are not comparable.
func compareAssertion(value interface{}, assertion string, declared string) (int, bool) {
	if number, isNumber := toFloat(value); isNumber {
		if declared == moray.IndexTypeNumber || declared == "" {
			other, err := strconv.ParseFloat(assertion, 64)
			if err == nil {
				return compareFloat(number, other), true
			}
			if declared == moray.IndexTypeNumber {
				return 0, false
			}
		}
	}
	if b, isBool := value.(bool); isBool && declared == moray.IndexTypeBoolean {
		other, err := strconv.ParseBool(assertion)
		if err != nil {
			return 0, false
		}
		if b == other {
			return 0, true
		}
		if !b {
			return -1, true
		}
		return 1, true
	}
	return strings.Compare(stringify(value), assertion), true
}

// compareValues orders two stored values for sorting, missing values sort last
func compareValues(a, b interface{}, aOK, bOK bool) int {
	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return 1
	case !bOK:
		return -1
	}
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return compareFloat(fa, fb)
	}
	return strings.Compare(stringify(a), stringify(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// toFloat converts any numeric value into a float64
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// stringify returns the string form of a value used for string comparisons
func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	if f, ok := toFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}

// matchSubstring matches s against the pieces of a wildcard pattern
func matchSubstring(s string, parts []string) bool {
	if len(parts) == 0 {
		return true
	}

	// initial piece is anchored at the start, the final piece at the end
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	last := parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]
	for _, part := range middle {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, last)
}
