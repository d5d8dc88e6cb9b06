package domain

import "fmt"

// NumericPair is a recognized "left/right" count, e.g. "12/34"
type NumericPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// HasZero reports whether either side of the pair is zero
func (p NumericPair) HasZero() bool {
	return p.Left == 0 || p.Right == 0
}

// Delta returns Right - Left
func (p NumericPair) Delta() int {
	return p.Right - p.Left
}

func (p NumericPair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Left, p.Right)
}

// Fragment is one unit of recognized text with its normalized horizontal
// origin (0.0-1.0) inside the recognized image
type Fragment struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Confidence float64 `json:"confidence"`
}

// Reading is the result of one capture/recognize/parse pass over a region
type Reading struct {
	Region    string      `json:"region"`
	Text      string      `json:"text"`
	Pair      NumericPair `json:"pair"`
	HasPair   bool        `json:"has_pair"`
	Corrected bool        `json:"corrected,omitempty"`
}
