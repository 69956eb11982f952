package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONArray(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(`[{"a": 1}]`, ExtractJSONArray("```json\n[{\"a\": 1}]\n```"))
	assert.Equal(`[{"a": 1}]`, ExtractJSONArray("```\n[{\"a\": 1}]\n```"))
	assert.Equal(`[1, 2]`, ExtractJSONArray("here you go: [1, 2] hope that helps"))
	assert.Equal("", ExtractJSONArray("no array to be found"))
}

func TestExtractJSONObject(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(`{"title": "X"}`, ExtractJSONObject("```json\n{\"title\": \"X\"}\n```"))
	assert.Equal(`{"a": {"b": 2}}`, ExtractJSONObject(`prefix {"a": {"b": 2}} suffix`))
	assert.Equal("", ExtractJSONObject("nothing structured"))
}
