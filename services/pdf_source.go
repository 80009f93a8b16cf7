package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"volos-codex/models"
)

// PageSource opens a book and exposes its pages as positioned words.
type PageSource interface {
	Open(ctx context.Context, path string) (BookDocument, error)
}

// BookDocument is an opened book. Pages are numbered from 1.
type BookDocument interface {
	NumPages() int
	PageWords(page int) ([]models.Word, error)
	Close() error
}

const (
	// Glyphs whose baselines differ by more than this belong to different words.
	baselineTolerance = 0.5
	// Horizontal gap, as a fraction of the font size, that splits two glyphs
	// into separate words when the PDF did not emit an explicit space.
	// Inter-word gaps in typeset text run around 0.25em; kerning inside a
	// word stays at or below zero.
	wordGapFactor = 0.12
)

// LedongthucSource reads PDFs with github.com/ledongthuc/pdf.
type LedongthucSource struct{}

func NewLedongthucSource() *LedongthucSource {
	return &LedongthucSource{}
}

func (LedongthucSource) Open(ctx context.Context, path string) (BookDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	return &ledongthucDocument{closer: f.Close, reader: reader}, nil
}

type ledongthucDocument struct {
	closer func() error
	reader *pdf.Reader
}

func (d *ledongthucDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *ledongthucDocument) PageWords(n int) (words []models.Word, err error) {
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}

	// The content stream interpreter panics on malformed operators.
	defer func() {
		if r := recover(); r != nil {
			words = nil
			err = fmt.Errorf("failed to read content of page %d: %v", n, r)
		}
	}()

	return wordsFromGlyphs(page.Content().Text), nil
}

func (d *ledongthucDocument) Close() error {
	return d.closer()
}

// wordsFromGlyphs assembles glyph runs in content-stream order into words.
// A word ends at whitespace, a baseline change, a horizontal gap wider than
// wordGapFactor times the font size, or a jump backwards.
func wordsFromGlyphs(glyphs []pdf.Text) []models.Word {
	var words []models.Word
	var current *models.Word
	var sb strings.Builder
	lastY := 0.0

	flush := func() {
		if current == nil {
			return
		}
		current.Text = sb.String()
		words = append(words, *current)
		current = nil
		sb.Reset()
	}

	for _, run := range glyphs {
		for _, g := range splitRun(run) {
			if strings.TrimSpace(g.S) == "" {
				flush()
				continue
			}

			if current != nil {
				gap := g.X - current.Right
				tolerance := wordGapFactor * g.FontSize
				if math.Abs(g.Y-lastY) > baselineTolerance || gap > tolerance || gap < -tolerance-g.W {
					flush()
				}
			}

			if current == nil {
				current = &models.Word{
					Left:   g.X,
					Right:  g.X + g.W,
					Bottom: g.Y,
					Top:    g.Y + g.FontSize,
				}
			}

			sb.WriteString(g.S)
			current.Left = math.Min(current.Left, g.X)
			current.Right = math.Max(current.Right, g.X+g.W)
			current.Top = math.Max(current.Top, g.Y+g.FontSize)
			current.FontSizes = append(current.FontSizes, g.FontSize)
			lastY = g.Y
		}
	}
	flush()

	return words
}

// splitRun cuts a multi-character run at whitespace. The run's width is
// spread evenly over its runes to position the pieces.
func splitRun(g pdf.Text) []pdf.Text {
	runes := []rune(g.S)
	if len(runes) <= 1 || !strings.ContainsFunc(g.S, unicode.IsSpace) {
		return []pdf.Text{g}
	}

	step := g.W / float64(len(runes))
	var pieces []pdf.Text
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && unicode.IsSpace(runes[i]) == unicode.IsSpace(runes[start]) {
			continue
		}
		piece := g
		piece.S = string(runes[start:i])
		piece.X = g.X + float64(start)*step
		piece.W = float64(i-start) * step
		pieces = append(pieces, piece)
		start = i
	}
	return pieces
}
