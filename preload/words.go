// Package preload ships a small demo vocabulary for the embed command.
package preload

import "github.com/alDuncanson/manifold/dataset"

// Category is a group of semantically related words.
type Category struct {
	Name  string
	Words []string
}

// Categories returns a curated vocabulary designed to form distinct semantic clusters.
// A category's label is its index.
func Categories() []Category {
	return []Category{
		{
			Name:  "animals",
			Words: []string{
				"dog", "cat", "wolf", "lion", "tiger", "elephant", "giraffe", "zebra",
				"eagle", "hawk", "sparrow", "penguin", "dolphin", "whale", "shark", "salmon",
			},
		},
		{
			Name:  "colors",
			Words: []string{
				"red", "blue", "green", "yellow", "purple", "orange", "pink", "black",
				"white", "gray", "crimson", "azure", "emerald", "gold", "silver", "indigo",
			},
		},
		{
			Name:  "emotions",
			Words: []string{
				"happy", "sad", "angry", "fearful", "surprised", "disgusted", "anxious", "calm",
				"excited", "bored", "grateful", "jealous", "proud", "ashamed", "hopeful", "melancholy",
			},
		},
		{
			Name:  "food",
			Words: []string{
				"pizza", "burger", "sushi", "pasta", "salad", "steak", "bread", "cheese",
				"apple", "banana", "orange", "grape", "strawberry", "chocolate", "cake", "ice cream",
			},
		},
		{
			Name:  "music",
			Words: []string{
				"guitar", "piano", "drums", "violin", "trumpet", "flute", "bass", "saxophone",
				"jazz", "rock", "classical", "blues", "hip hop", "country", "metal", "electronic",
			},
		},
		{
			Name:  "sports",
			Words: []string{
				"soccer", "basketball", "tennis", "golf", "baseball", "hockey", "football", "volleyball",
				"swimming", "running", "cycling", "boxing", "wrestling", "skiing", "surfing", "climbing",
			},
		},
		{
			Name:  "weather",
			Words: []string{
				"sunny", "rainy", "cloudy", "snowy", "windy", "foggy", "stormy", "humid",
				"freezing", "scorching", "drizzle", "thunder", "lightning", "hail", "frost", "drought",
			},
		},
		{
			Name:  "tech",
			Words: []string{
				"computer", "keyboard", "monitor", "mouse", "server", "database", "algorithm", "network",
				"internet", "software", "hardware", "compiler", "debugger", "terminal", "browser", "encryption",
			},
		},
	}
}

// Words returns the vocabulary flattened in category order.
func Words() []string {
	var words []string
	for _, category := range Categories() {
		words = append(words, category.Words...)
	}
	return words
}

// LabeledWords returns every word labeled with its category index.
func LabeledWords() []dataset.LabeledText {
	var out []dataset.LabeledText
	for label, category := range Categories() {
		for _, word := range category.Words {
			out = append(out, dataset.LabeledText{Text: word, Label: label})
		}
	}
	return out
}
