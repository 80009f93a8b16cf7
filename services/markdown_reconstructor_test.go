package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"volos-codex/models"
)

func word(text string, left, bottom, size float64) models.Word {
	sizes := make([]float64, len([]rune(text)))
	for i := range sizes {
		sizes[i] = size
	}
	return models.Word{
		Text:      text,
		Left:      left,
		Right:     left + float64(len(text))*size*0.5,
		Bottom:    bottom,
		Top:       bottom + size,
		FontSizes: sizes,
	}
}

// line lays out the words of a sentence left to right on one baseline.
func line(sentence string, bottom, size float64) []models.Word {
	var words []models.Word
	x := 50.0
	for _, w := range splitWords(sentence) {
		words = append(words, word(w, x, bottom, size))
		x += float64(len(w))*size*0.5 + size*0.3
	}
	return words
}

func splitWords(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func TestPageToMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", PageToMarkdown(nil))
}

func TestPageToMarkdown_SleepSpell(t *testing.T) {
	words := append(line("Sleep", 700, 18), line("You cause a creature to fall asleep.", 680, 10)...)

	assert.Equal(t, "# Sleep\nYou cause a creature to fall asleep.", PageToMarkdown(words))
}

func TestPageToMarkdown_HeadingBoundaries(t *testing.T) {
	body := line("body text sets the dominant size for this page", 100, 10)

	tests := []struct {
		name string
		size float64
		want string
	}{
		{"just under level two", 11.9, "Title"},
		{"exactly level two", 12.0, "## Title"},
		{"between levels", 14.9, "## Title"},
		{"exactly level one", 15.0, "# Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := append(line("Title", 700, tt.size), body...)
			got := PageToMarkdown(words)
			assert.Equal(t, tt.want+"\nbody text sets the dominant size for this page", got)
		})
	}
}

func TestPageToMarkdown_SingleWord(t *testing.T) {
	assert.Equal(t, "Lonely", PageToMarkdown([]models.Word{word("Lonely", 10, 10, 30)}))
}

func TestPageToMarkdown_UniformSizeHasNoHeadings(t *testing.T) {
	words := append(line("first line", 500, 11), line("second line", 480, 11)...)
	assert.Equal(t, "first line\nsecond line", PageToMarkdown(words))
}

func TestPageToMarkdown_ReordersWithinLine(t *testing.T) {
	// Slightly different baselines inside the 5pt window sort by bottom first,
	// which would interleave the words without the per-line left sort.
	words := []models.Word{
		word("world", 120, 401, 10),
		word("hello", 50, 399, 10),
		word("again", 190, 400, 10),
		word("next", 50, 380, 10),
	}
	assert.Equal(t, "hello world again\nnext", PageToMarkdown(words))
}

func TestPageToMarkdown_TopToBottom(t *testing.T) {
	words := append(line("lower", 100, 10), line("upper", 300, 10)...)
	assert.Equal(t, "upper\nlower", PageToMarkdown(words))
}

func TestDominantFontSize(t *testing.T) {
	words := []models.Word{
		word("a", 0, 0, 10.04),
		word("b", 0, 0, 9.96),
		word("c", 0, 0, 24),
		word("d", 0, 0, 24),
	}
	// 10.04 and 9.96 both round to 10.0; ties resolve to the first seen size.
	assert.Equal(t, 10.0, DominantFontSize(words))

	words = append(words, word("e", 0, 0, 24))
	assert.Equal(t, 24.0, DominantFontSize(words))
}
