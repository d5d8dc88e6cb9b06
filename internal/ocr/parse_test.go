package ocr

import (
	"errors"
	"math"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	domain "github.com/berth-automation/berth/internal/domain"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   domain.NumericPair
		wantOK bool
	}{
		{name: "Ratio", text: "12/34", want: domain.NumericPair{Left: 12, Right: 34}, wantOK: true},
		{name: "Ratio with spaces", text: "3 / 150", want: domain.NumericPair{Left: 3, Right: 150}, wantOK: true},
		{name: "Ratio wins over stray digits", text: "7 Qty 12/34 ok 99", want: domain.NumericPair{Left: 12, Right: 34}, wantOK: true},
		{name: "Ratio embedded in longer run", text: "1234/56", want: domain.NumericPair{Left: 234, Right: 56}, wantOK: true},
		{name: "Zero left", text: "0/8", want: domain.NumericPair{Left: 0, Right: 8}, wantOK: true},
		{name: "Two runs", text: "ab12cd34ef56", want: domain.NumericPair{Left: 12, Right: 34}, wantOK: true},
		{name: "Slash lost by OCR", text: "12 34", want: domain.NumericPair{Left: 12, Right: 34}, wantOK: true},
		{name: "One run", text: "only7here", want: domain.NumericPair{Left: 0, Right: 7}, wantOK: true},
		{name: "Empty", text: "", wantOK: false},
		{name: "No digits", text: "no numbers", wantOK: false},
		{name: "Slash only", text: " / ", wantOK: false},
		{name: "Overflowing run saturates", text: "99999999999999999999 5 7", want: domain.NumericPair{Left: math.MaxInt, Right: 5}, wantOK: true},
		{name: "Lone overflowing run", text: "99999999999999999999", want: domain.NumericPair{Left: 0, Right: math.MaxInt}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePair(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)

			again, okAgain := ParsePair(tt.text)
			assert.Equal(t, got, again)
			assert.Equal(t, ok, okAgain)
		})
	}
}

func TestReadPair(t *testing.T) {
	p, err := ReadPair("5/6")
	require.NoError(t, err)
	assert.Equal(t, domain.NumericPair{Left: 5, Right: 6}, p)

	_, err = ReadPair("nothing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPair))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "1234", DigitsOnly("12/34"))
	assert.Equal(t, "", DigitsOnly("none"))
	assert.Equal(t, "7", DigitsOnly(" 7 "))
}
