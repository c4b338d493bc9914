package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderJSON(t *testing.T) {
	details, err := parseOrderJSON(`{"item": "rice", "qty": 2}`)
	require.NoError(t, err)
	assert.Equal(t, "rice", details["item"])
	assert.Equal(t, float64(2), details["qty"])
}

func TestParseOrderJSONStripsCodeFences(t *testing.T) {
	details, err := parseOrderJSON("```json\n{\"item\": \"sugar\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "sugar", details["item"])

	details, err = parseOrderJSON("```\n{\"item\": \"oil\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "oil", details["item"])
}

func TestParseOrderJSONInvalid(t *testing.T) {
	_, err := parseOrderJSON("sorry, I could not read that")
	assert.Error(t, err)
}

func TestParseOrderJSONEmptyObject(t *testing.T) {
	details, err := parseOrderJSON(`{}`)
	require.NoError(t, err)
	assert.Nil(t, details)
}
