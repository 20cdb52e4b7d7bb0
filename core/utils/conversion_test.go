package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 42, ToInt(42))
	assert.Equal(t, 42, ToInt(int64(42)))
	assert.Equal(t, 42, ToInt(42.9))
	assert.Equal(t, 42, ToInt("42"))
	assert.Equal(t, 42, ToInt([]byte("42")))
	assert.Equal(t, 0, ToInt("not a number"))
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 42.5, ToFloat(42.5))
	assert.Equal(t, 42.0, ToFloat(42))
	assert.Equal(t, -33.865, ToFloat("-33.865"))
	assert.Equal(t, 151.209, ToFloat(" 151.209 "))
	assert.Equal(t, 0.0, ToFloat("not a number"))
	assert.Equal(t, 0.0, ToFloat(nil))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "hello", ToString("hello"))
	assert.Equal(t, "hello", ToString([]byte("hello")))
	assert.Equal(t, "42", ToString(42))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool("TRUE"))
	assert.False(t, ToBool(0))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}
