package util

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Equal(t, "", WrapString(""))
}

func TestParseJSONObject(t *testing.T) {
	value, err := ParseJSONObject(`{"color":"red","size":3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"color": "red", "size": float64(3)}, value)

	for _, arg := range []string{"", "null", "[1,2]", `"red"`, "{broken"} {
		_, err := ParseJSONObject(arg)
		assert.Error(t, err, arg)
	}
}
