package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_Unmarshal(t *testing.T) {
	var in struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 2.5, "b": "3", "c": "1,5", "d": "", "e": null}`), &in))

	assert.Equal(t, NewNumber(2.5), in.A)
	assert.Equal(t, NewNumber(3), in.B)
	assert.Equal(t, NewNumber(1.5), in.C)
	assert.False(t, in.D.Set)
	assert.False(t, in.E.Set)
	assert.Equal(t, 7.0, in.E.Or(7))
}

func TestNumber_RejectsNonNumeric(t *testing.T) {
	var in struct {
		A Number `json:"a"`
	}
	for _, body := range []string{`{"a": "abc"}`, `{"a": true}`, `{"a": [1]}`} {
		err := json.Unmarshal([]byte(body), &in)
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrValidation), body)
	}
}

func TestNullableNumber(t *testing.T) {
	var in struct {
		A NullableNumber `json:"a"`
		B NullableNumber `json:"b"`
		C NullableNumber `json:"c"`
		D NullableNumber `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": null, "c": ""}`), &in))

	assert.True(t, in.A.Present)
	assert.Equal(t, 12.5, in.A.Or(0))
	assert.False(t, in.A.Cleared())
	assert.True(t, in.B.Cleared())
	assert.True(t, in.C.Cleared())
	assert.False(t, in.D.Present)
	assert.False(t, in.D.Cleared())
}
