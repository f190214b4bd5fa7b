package mstore

import (
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestParseFilterErrors(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"(color=red",
		"(=red)",
		"(color)",
		"(&)",
		"(color=red))",
		"(color=re(d)",
		`(color=\4)`,
		`(color=\zz)`,
	}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := parseFilter(input)
			assert.Error(t, err)
		})
	}
}

// nested builds a filter of depth negations around (a=b)
func nested(depth int) string {
	return strings.Repeat("(!", depth) + "(a=b)" + strings.Repeat(")", depth)
}

func TestParseFilterDepthLimit(t *testing.T) {
	_, err := parseFilter(nested(maxFilterDepth - 1))
	require.NoError(t, err)

	_, err = parseFilter(nested(maxFilterDepth))
	assert.Error(t, err)

	// A huge input must fail fast and not be echoed into the error
	_, err = parseFilter(nested(1_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested deeper")
	assert.Less(t, len(err.Error()), 256)

	_, err = parseFilter(strings.Repeat("(&", 100) + "(a=b)" + strings.Repeat(")", 100))
	assert.Error(t, err)
}

func TestFindObjectsRejectsDeepFilter(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.CreateBucket("widgets", moray.BucketConfig{}))

	err := s.FindObjects("widgets", nested(10_000), moray.ObjectOptions{}, func(*moray.Object) error { return nil })
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeInvalidQuery), "got %v", err)
}

func TestParseFilterStructure(t *testing.T) {
	f, err := parseFilter("(&(color=red)(|(size>=3)(!(name=a*b))))")
	require.NoError(t, err)

	assert.Equal(t, filterAnd, f.op)
	require.Len(t, f.children, 2)
	assert.Equal(t, filterEqual, f.children[0].op)
	assert.Equal(t, "red", f.children[0].value)

	or := f.children[1]
	assert.Equal(t, filterOr, or.op)
	assert.Equal(t, filterGreaterOrEqual, or.children[0].op)
	assert.Equal(t, filterNot, or.children[1].op)
	assert.Equal(t, filterSubstring, or.children[1].children[0].op)
	assert.Equal(t, []string{"a", "b"}, or.children[1].children[0].parts)

	assert.ElementsMatch(t, []string{"color", "size", "name"}, f.attributes())
}

func TestParseFilterEscapes(t *testing.T) {
	f, err := parseFilter(`(name=a\2ab\29)`)
	require.NoError(t, err)
	assert.Equal(t, filterEqual, f.op)
	assert.Equal(t, "a*b)", f.value)
}

func TestFilterMatches(t *testing.T) {
	index := moray.IndexSchema{
		"size":   {Type: moray.IndexTypeNumber},
		"active": {Type: moray.IndexTypeBoolean},
		"color":  {Type: moray.IndexTypeString},
	}
	record := &ObjectRecord{
		Key: "w1",
		Value: map[string]interface{}{
			"color":  "red",
			"size":   float64(10),
			"active": true,
			"tags":   []interface{}{"a", "b"},
			"label":  "widget-large",
			"code":   "9",
		},
		ID:   4,
		Etag: "e1",
	}

	testCases := []struct {
		filter string
		want   bool
	}{
		{"color=red", true},
		{"(color=red)", true},
		{"(color=blue)", false},
		{"(size=10)", true},
		{"(size=10.0)", true},
		{"(size>=9)", true},
		{"(size>=11)", false},
		{"(size<=10)", true},
		{"(size<=2)", false},
		{"(active=true)", true},
		{"(active=false)", false},
		{"(tags=b)", true},
		{"(tags=c)", false},
		{"(color=*)", true},
		{"(missing=*)", false},
		{"(missing=x)", false},
		{"(label=widget*)", true},
		{"(label=*large)", true},
		{"(label=w*d*e)", true},
		{"(label=*small*)", false},
		{"(code=9)", true},
		{"(_key=w1)", true},
		{"(_id>=4)", true},
		{"(_etag=e2)", false},
		{"(&(color=red)(size=10))", true},
		{"(&(color=red)(size=11))", false},
		{"(|(color=blue)(size=10))", true},
		{"(!(color=blue))", true},
		{"(!(color=red))", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filter, func(t *testing.T) {
			f, err := parseFilter(tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.matches(record, index))
		})
	}
}

func TestFilterValidate(t *testing.T) {
	index := moray.IndexSchema{
		"size":   {Type: moray.IndexTypeNumber},
		"active": {Type: moray.IndexTypeBoolean},
	}

	testCases := []struct {
		filter  string
		wantErr bool
	}{
		{"(size=3)", false},
		{"(size=big)", true},
		{"(size=*)", false},
		{"(active=yes)", true},
		{"(&(name=x)(size>=2.5))", false},
		{"(|(name=x)(!(_id=abc)))", true},
	}

	for _, tc := range testCases {
		t.Run(tc.filter, func(t *testing.T) {
			f, err := parseFilter(tc.filter)
			require.NoError(t, err)
			err = f.validate(index)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchSubstring(t *testing.T) {
	assert.True(t, matchSubstring("abc", []string{"", ""}))
	assert.True(t, matchSubstring("abc", []string{"a", "c"}))
	assert.False(t, matchSubstring("a", []string{"a", "a"}))
	assert.True(t, matchSubstring("aXbXc", []string{"", "b", ""}))
	assert.False(t, matchSubstring("abc", []string{"", "x", ""}))
}
