// Package reader turns a named screen region into a numeric reading.
package reader

import (
	"context"
	"image"

	imaging "github.com/disintegration/imaging"
	zap "go.uber.org/zap"

	capture "github.com/berth-automation/berth/internal/capture"
	domain "github.com/berth-automation/berth/internal/domain"
	logger "github.com/berth-automation/berth/internal/logger"
	ocr "github.com/berth-automation/berth/internal/ocr"
)

// Options configures the pipeline after capture
type Options struct {
	Preprocess   ocr.PreprocessOptions
	Disambiguate bool
	Ink          ocr.InkOptions
}

// Reader runs capture, preprocessing, recognition and parsing for one region
type Reader struct {
	capturer   *capture.Capturer
	recognizer ocr.Recognizer
	dumper     *capture.Dumper
	opts       Options
}

var _ domain.RegionReader = (*Reader)(nil)

// New creates a reader. dumper may be nil.
func New(capturer *capture.Capturer, recognizer ocr.Recognizer, dumper *capture.Dumper, opts Options) *Reader {
	return &Reader{
		capturer:   capturer,
		recognizer: recognizer,
		dumper:     dumper,
		opts:       opts,
	}
}

// Inspection is everything one pass produced, kept for probing
type Inspection struct {
	Full      image.Image
	Raw       image.Image
	Processed image.Image
	Fragments []domain.Fragment
	Reading   domain.Reading
}

// Read returns the region's reading. Capture and engine failures come back
// as a reading without a pair.
func (r *Reader) Read(ctx context.Context, region domain.Region) domain.Reading {
	raw, err := r.capturer.Capture(ctx, region)
	if err != nil {
		logger.FromContext(ctx).Warn("Region capture failed", zap.String("region", region.Name), zap.Error(err))
		return domain.Reading{Region: region.Name}
	}
	return r.process(ctx, region, raw).Reading
}

// Inspect runs one pass and keeps the intermediate images
func (r *Reader) Inspect(ctx context.Context, region domain.Region) (*Inspection, error) {
	full, err := r.capturer.Grab(ctx)
	if err != nil {
		return nil, err
	}
	return r.InspectImage(ctx, full, region), nil
}

// InspectImage runs one pass over an already captured full-screen image
func (r *Reader) InspectImage(ctx context.Context, full image.Image, region domain.Region) *Inspection {
	r.dump(ctx, capture.StageFull, region.Name, full)
	in := r.process(ctx, region, capture.Crop(full, region))
	in.Full = full
	return in
}

// process runs preprocessing, recognition, parsing and disambiguation over a
// region's raw crop
func (r *Reader) process(ctx context.Context, region domain.Region, raw image.Image) *Inspection {
	log := logger.FromContext(ctx)
	proc := ocr.Preprocess(raw, r.opts.Preprocess)

	r.dump(ctx, capture.StageRaw, region.Name, raw)
	r.dump(ctx, capture.StageProc, region.Name, proc)

	var frags []domain.Fragment
	if !capture.IsEmpty(proc) {
		frags = ocr.SortFragments(r.recognizer.Recognize(ctx, proc))
	}

	reading := domain.Reading{Region: region.Name, Text: ocr.JoinFragments(frags)}
	pair, err := ocr.ReadPair(reading.Text)
	if err != nil {
		log.Debug("Region has no pair", zap.String("region", region.Name), zap.Error(err))
	} else {
		reading.Pair, reading.HasPair = pair, true
	}

	if reading.HasPair && r.opts.Disambiguate {
		corrected := r.disambiguate(raw, reading.Pair)
		if corrected != reading.Pair {
			log.Debug("Corrected 6/9 reading",
				zap.String("region", region.Name),
				zap.Stringer("from", reading.Pair),
				zap.Stringer("to", corrected),
			)
			reading.Pair = corrected
			reading.Corrected = true
		}
	}

	log.Debug("Region read",
		zap.String("region", region.Name),
		zap.String("text", reading.Text),
		zap.Bool("has_pair", reading.HasPair),
		zap.Stringer("pair", reading.Pair),
	)

	return &Inspection{
		Raw:       raw,
		Processed: proc,
		Fragments: frags,
		Reading:   reading,
	}
}

// disambiguate re-checks single-digit 6/9 sides against the ink on their half
// of the raw crop
func (r *Reader) disambiguate(raw image.Image, pair domain.NumericPair) domain.NumericPair {
	if capture.IsEmpty(raw) {
		return pair
	}

	b := raw.Bounds()
	sep := b.Min.X + ocr.FindSeparatorX(raw, r.opts.Ink.Threshold)

	if isAmbiguous(pair.Left) {
		left := imaging.Crop(raw, image.Rect(b.Min.X, b.Min.Y, sep, b.Max.Y))
		pair.Left = ocr.ResolveDigit(left, pair.Left, r.opts.Ink)
	}
	if isAmbiguous(pair.Right) {
		right := imaging.Crop(raw, image.Rect(sep, b.Min.Y, b.Max.X, b.Max.Y))
		pair.Right = ocr.ResolveDigit(right, pair.Right, r.opts.Ink)
	}
	return pair
}

func isAmbiguous(n int) bool {
	return n == 6 || n == 9
}

func (r *Reader) dump(ctx context.Context, stage, region string, img image.Image) {
	if _, err := r.dumper.Dump(stage, region, img); err != nil {
		logger.FromContext(ctx).Warn("Failed to dump image", zap.String("stage", stage), zap.Error(err))
	}
}
