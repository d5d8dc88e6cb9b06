package ocr

import (
	"context"
	"image"
	"sort"
	"strings"

	domain "github.com/berth-automation/berth/internal/domain"
)

// Recognizer extracts text fragments from an image, ordered left to right.
// Engine failures are reported as an empty result, never as an error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) []domain.Fragment
}

// SortFragments returns the fragments ordered left to right. Fragments with the
// same origin keep their engine order.
func SortFragments(frags []domain.Fragment) []domain.Fragment {
	out := make([]domain.Fragment, len(frags))
	copy(out, frags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].X < out[j].X
	})
	return out
}

// JoinFragments joins fragment texts with single spaces, skipping blanks
func JoinFragments(frags []domain.Fragment) string {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
