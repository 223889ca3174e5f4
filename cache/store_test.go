package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrSet(t *testing.T) {
	calls := 0
	factory := func() (*int, error) {
		calls++
		v := 42
		return &v, nil
	}

	v, err := GetOrSet("test:answer", factory)
	assert.NoError(t, err)
	assert.Equal(t, 42, *v)

	v, err = GetOrSet("test:answer", factory)
	assert.NoError(t, err)
	assert.Equal(t, 42, *v)
	assert.Equal(t, 1, calls)

	Delete("test:answer")
	_, _ = GetOrSet("test:answer", factory)
	assert.Equal(t, 2, calls)
}

func TestGetOrSetError(t *testing.T) {
	_, err := GetOrSet("test:error", func() (*string, error) {
		return nil, errors.New("probe failed")
	})
	assert.Error(t, err)
	assert.Nil(t, Get[string]("test:error"))
}

func TestGetWrongType(t *testing.T) {
	s := "value"
	Set("test:type", &s)
	assert.Nil(t, Get[int]("test:type"))
	assert.Equal(t, "value", *Get[string]("test:type"))
}
