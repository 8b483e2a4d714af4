package preload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	categories := Categories()
	assert.Len(t, categories, 8)
	for _, category := range categories {
		assert.Len(t, category.Words, 16, category.Name)
	}
}

func TestLabeledWords(t *testing.T) {
	words := LabeledWords()
	assert.Len(t, words, len(Words()))

	assert.Equal(t, "dog", words[0].Text)
	assert.Equal(t, 0, words[0].Label)

	last := words[len(words)-1]
	assert.Equal(t, "encryption", last.Text)
	assert.Equal(t, 7, last.Label)
}
