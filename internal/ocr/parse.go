package ocr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	domain "github.com/berth-automation/berth/internal/domain"
)

// ErrNoPair is returned when no numeric pair can be read from text
var ErrNoPair = errors.New("no numeric pair in text")

var (
	ratioPattern  = regexp.MustCompile(`(\d{1,3})\s*/\s*(\d{1,3})`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// ParsePair extracts a pair from recognized text. A "left/right" ratio wins;
// otherwise the first two digit runs are used, and a lone run n reads as (0, n).
// Runs too long for an int saturate at math.MaxInt.
func ParsePair(text string) (domain.NumericPair, bool) {
	if m := ratioPattern.FindStringSubmatch(text); m != nil {
		// at most three digits each, cannot fail
		left, _ := strconv.Atoi(m[1])
		right, _ := strconv.Atoi(m[2])
		return domain.NumericPair{Left: left, Right: right}, true
	}

	var nums []int
	for _, run := range numberPattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(run)
		if err != nil {
			// out of range; keep the run's position
			n = math.MaxInt
		}
		nums = append(nums, n)
		if len(nums) == 2 {
			break
		}
	}

	switch len(nums) {
	case 2:
		return domain.NumericPair{Left: nums[0], Right: nums[1]}, true
	case 1:
		return domain.NumericPair{Left: 0, Right: nums[0]}, true
	default:
		return domain.NumericPair{}, false
	}
}

// ReadPair is ParsePair with an error for the no-pair case
func ReadPair(text string) (domain.NumericPair, error) {
	p, ok := ParsePair(text)
	if !ok {
		return domain.NumericPair{}, fmt.Errorf("%w: %q", ErrNoPair, text)
	}
	return p, nil
}

// DigitsOnly concatenates every digit run in text
func DigitsOnly(text string) string {
	return strings.Join(numberPattern.FindAllString(text, -1), "")
}
