package domain

import (
	"image"
	"testing"

	assert "github.com/stretchr/testify/assert"
)

func TestRegion_PixelRect(t *testing.T) {
	tests := []struct {
		name     string
		region   Region
		expected image.Rectangle
	}{
		{
			name:     "Ordered corners are scaled",
			region:   Region{A: Point{1403, 678}, B: Point{1430, 688}, Scale: 2},
			expected: image.Rect(2806, 1356, 2860, 1376),
		},
		{
			name:     "Swapped corners are normalized",
			region:   Region{A: Point{1430, 688}, B: Point{1403, 678}, Scale: 2},
			expected: image.Rect(2806, 1356, 2860, 1376),
		},
		{
			name:     "Mixed corners are normalized per axis",
			region:   Region{A: Point{10, 50}, B: Point{30, 20}, Scale: 1},
			expected: image.Rect(10, 20, 30, 50),
		},
		{
			name:     "Zero scale falls back to one",
			region:   Region{A: Point{1, 2}, B: Point{3, 4}},
			expected: image.Rect(1, 2, 3, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.region.PixelRect())
		})
	}
}

func TestRegion_Empty(t *testing.T) {
	assert.True(t, Region{A: Point{5, 5}, B: Point{5, 9}, Scale: 2}.Empty())
	assert.True(t, Region{A: Point{5, 5}, B: Point{9, 5}, Scale: 2}.Empty())
	assert.False(t, Region{A: Point{5, 5}, B: Point{6, 6}, Scale: 2}.Empty())
}

func TestNumericPair(t *testing.T) {
	assert.True(t, NumericPair{Left: 0, Right: 4}.HasZero())
	assert.True(t, NumericPair{Left: 4, Right: 0}.HasZero())
	assert.False(t, NumericPair{Left: 1, Right: 1}.HasZero())
	assert.Equal(t, 9, NumericPair{Left: 3, Right: 12}.Delta())
	assert.Equal(t, "(3,12)", NumericPair{Left: 3, Right: 12}.String())
}
