package services

import (
	"math"
	"sort"
	"strings"

	"volos-codex/models"
)

const (
	// Words whose bottoms differ by more than this many points start a new line.
	lineBreakThreshold = 5.0

	headingOneRatio = 1.5
	headingTwoRatio = 1.2

	// Absorbs float noise when a size sits exactly on a heading boundary.
	ratioEpsilon = 1e-9
)

// PageToMarkdown rebuilds reading-order lines from a page's positioned words
// and marks lines set noticeably larger than the body text as headings.
// It returns "" for a page without words.
func PageToMarkdown(words []models.Word) string {
	if len(words) == 0 {
		return ""
	}

	base := DominantFontSize(words)
	lines := groupLines(words)

	var sb strings.Builder
	for _, line := range lines {
		texts := make([]string, 0, len(line))
		maxSize := 0.0
		for _, w := range line {
			texts = append(texts, w.Text)
			if size := w.MaxFontSize(); size > maxSize {
				maxSize = size
			}
		}
		text := strings.Join(texts, " ")

		switch {
		case base > 0 && maxSize >= base*headingOneRatio-ratioEpsilon:
			sb.WriteString("# ")
		case base > 0 && maxSize >= base*headingTwoRatio-ratioEpsilon:
			sb.WriteString("## ")
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	return strings.TrimSpace(sb.String())
}

// DominantFontSize returns the most common per-word font size, rounded to one
// decimal. Ties go to the size seen first.
func DominantFontSize(words []models.Word) float64 {
	counts := make(map[float64]int)
	var order []float64
	for _, w := range words {
		size := math.RoundToEven(w.MaxFontSize()*10) / 10
		if _, seen := counts[size]; !seen {
			order = append(order, size)
		}
		counts[size]++
	}

	best, bestCount := 0.0, -1
	for _, size := range order {
		if counts[size] > bestCount {
			best, bestCount = size, counts[size]
		}
	}
	return best
}

// groupLines sorts words top-to-bottom then left-to-right and splits them
// into lines on vertical jumps. Each line comes back ordered left-to-right.
func groupLines(words []models.Word) [][]models.Word {
	sorted := make([]models.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Bottom != sorted[j].Bottom {
			return sorted[i].Bottom > sorted[j].Bottom
		}
		return sorted[i].Left < sorted[j].Left
	})

	var lines [][]models.Word
	var current []models.Word
	lineY := sorted[0].Bottom

	for _, w := range sorted {
		if math.Abs(w.Bottom-lineY) > lineBreakThreshold {
			if len(current) > 0 {
				lines = append(lines, sortByLeft(current))
			}
			current = nil
			lineY = w.Bottom
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		lines = append(lines, sortByLeft(current))
	}

	return lines
}

func sortByLeft(line []models.Word) []models.Word {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].Left < line[j].Left
	})
	return line
}
