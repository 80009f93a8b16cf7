package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(s string, x, y, w, size float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: size}
}

func TestWordsFromGlyphs_SplitsOnSpaceAndGap(t *testing.T) {
	glyphs := []pdf.Text{
		glyph("S", 10, 700, 9, 18),
		glyph("l", 19, 700, 4, 18),
		glyph("e", 23, 700, 8, 18),
		glyph("e", 31, 700, 8, 18),
		glyph("p", 39, 700, 9, 18),
		glyph(" ", 48, 700, 4, 18),
		glyph("o", 52, 700, 9, 18),
		glyph("n", 61, 700, 9, 18),
		// no explicit space, but far to the right
		glyph("x", 120, 700, 9, 18),
		// kerned word gap of a quarter em
		glyph("y", 133.5, 700, 9, 18),
	}

	words := wordsFromGlyphs(glyphs)
	require.Len(t, words, 4)
	assert.Equal(t, "Sleep", words[0].Text)
	assert.Equal(t, "on", words[1].Text)
	assert.Equal(t, "x", words[2].Text)
	assert.Equal(t, "y", words[3].Text)

	assert.Equal(t, 10.0, words[0].Left)
	assert.Equal(t, 48.0, words[0].Right)
	assert.Equal(t, 700.0, words[0].Bottom)
	assert.Equal(t, 718.0, words[0].Top)
	assert.Len(t, words[0].FontSizes, 5)
}

func TestWordsFromGlyphs_SplitsOnBaselineChange(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("a", 10, 700, 5, 10),
		glyph("b", 15, 688, 5, 10),
	})
	require.Len(t, words, 2)
	assert.Equal(t, "a", words[0].Text)
	assert.Equal(t, "b", words[1].Text)
}

func TestWordsFromGlyphs_MixedSizesKeptPerGlyph(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("D", 10, 500, 12, 24),
		glyph("rop", 22, 500, 15, 10),
	})
	require.Len(t, words, 1)
	assert.Equal(t, "Drop", words[0].Text)
	assert.Equal(t, []float64{24, 10}, words[0].FontSizes)
	assert.Equal(t, 24.0, words[0].MaxFontSize())
}

func TestWordsFromGlyphs_TrailingSpaceInRun(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("fall ", 10, 400, 20, 10),
		glyph("asleep.", 30, 400, 30, 10),
	})
	require.Len(t, words, 2)
	assert.Equal(t, "fall", words[0].Text)
	assert.Equal(t, "asleep.", words[1].Text)
}

func TestWordsFromGlyphs_Empty(t *testing.T) {
	assert.Empty(t, wordsFromGlyphs(nil))
	assert.Empty(t, wordsFromGlyphs([]pdf.Text{glyph(" ", 0, 0, 3, 10)}))
}

func TestWordsFromGlyphs_KerningInsideWordKeepsWord(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("A", 10, 500, 6.7, 10),
		glyph("V", 16.2, 500, 6.7, 10),
		glyph("e", 23.1, 500, 5.6, 10),
	})
	require.Len(t, words, 1)
	assert.Equal(t, "AVe", words[0].Text)
}

func TestWordsFromGlyphs_WhitespaceInsideRun(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("fall asleep", 10, 400, 55, 10),
	})
	require.Len(t, words, 2)
	assert.Equal(t, "fall", words[0].Text)
	assert.Equal(t, 10.0, words[0].Left)
	assert.Equal(t, 30.0, words[0].Right)
	assert.Equal(t, "asleep", words[1].Text)
	assert.Equal(t, 35.0, words[1].Left)
	assert.Equal(t, 65.0, words[1].Right)
	assert.Len(t, words[1].FontSizes, 1)
}

func TestWordsFromGlyphs_LeftIsMinimumX(t *testing.T) {
	words := wordsFromGlyphs([]pdf.Text{
		glyph("a", 20, 400, 5, 10),
		glyph("b", 25, 400, 5, 10),
		// overstrike that starts left of the word and ends at its right edge
		glyph("c", 18, 400, 12, 10),
	})
	require.Len(t, words, 1)
	assert.Equal(t, "abc", words[0].Text)
	assert.Equal(t, 18.0, words[0].Left)
	assert.Equal(t, 30.0, words[0].Right)
}

func TestLedongthucSource_ReadsPDF(t *testing.T) {
	doc, err := NewLedongthucSource().Open(context.Background(), filepath.Join("testdata", "sleep_spell.pdf"))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.NumPages())

	words, err := doc.PageWords(1)
	require.NoError(t, err)

	texts := make([]string, 0, len(words))
	for _, w := range words {
		texts = append(texts, w.Text)
	}
	assert.Equal(t, []string{
		"Sleep",
		"Sleep", "spell",
		"You", "cause", "a", "creature", "to", "fall", "asleep.",
	}, texts)

	assert.Equal(t, 72.0, words[0].Left)
	assert.Equal(t, 720.0, words[0].Bottom)
	assert.Equal(t, 18.0, words[0].MaxFontSize())
	assert.InDelta(t, 99.5, words[2].Left, 1e-9)

	assert.Equal(t,
		"# Sleep\nSleep spell\nYou cause a creature to fall asleep.",
		PageToMarkdown(words))
}

func TestLedongthucSource_MalformedPageIsAnError(t *testing.T) {
	doc, err := NewLedongthucSource().Open(context.Background(), filepath.Join("testdata", "sleep_spell.pdf"))
	require.NoError(t, err)
	defer doc.Close()

	words, err := doc.PageWords(2)
	assert.Error(t, err)
	assert.Nil(t, words)
}

func TestLedongthucSource_MissingFile(t *testing.T) {
	_, err := NewLedongthucSource().Open(context.Background(), filepath.Join("testdata", "missing.pdf"))
	assert.Error(t, err)
}
