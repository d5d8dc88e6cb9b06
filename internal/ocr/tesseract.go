package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	imaging "github.com/disintegration/imaging"
	gosseract "github.com/otiai10/gosseract/v2"

	domain "github.com/berth-automation/berth/internal/domain"
	logger "github.com/berth-automation/berth/internal/logger"
)

// TesseractOptions configures the engine
type TesseractOptions struct {
	Language    string
	PageSegMode int
	Whitelist   string
}

// Tesseract recognizes words with a single gosseract client
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

var _ Recognizer = (*Tesseract)(nil)

// NewTesseract creates a client with dictionary correction disabled
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	client := gosseract.NewClient()

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// counters are not words
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	psm := gosseract.PSM_SINGLE_LINE
	if opts.PageSegMode > 0 {
		psm = gosseract.PageSegMode(opts.PageSegMode)
	}
	if err := client.SetPageSegMode(psm); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	return &Tesseract{client: client}, nil
}

// Recognize returns one fragment per recognized word, left to right
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) []domain.Fragment {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		logger.Warn("Failed to encode image for OCR", "error", err)
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		logger.Warn("Failed to set OCR image", "error", err)
		return nil
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		logger.Warn("OCR failed", "error", err)
		return nil
	}

	return fragmentsFromBoxes(boxes, img.Bounds().Dx())
}

// fragmentsFromBoxes converts word boxes into fragments with X normalized by
// the image width, sorted left to right
func fragmentsFromBoxes(boxes []gosseract.BoundingBox, width int) []domain.Fragment {
	if width <= 0 {
		return nil
	}
	frags := make([]domain.Fragment, 0, len(boxes))
	for _, b := range boxes {
		frags = append(frags, domain.Fragment{
			Text:       b.Word,
			X:          float64(b.Box.Min.X) / float64(width),
			Confidence: b.Confidence,
		})
	}
	return SortFragments(frags)
}

// Close releases the engine
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
