package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	imaging "github.com/disintegration/imaging"
	uuid "github.com/google/uuid"

	logger "github.com/berth-automation/berth/internal/logger"
)

// Dump stages
const (
	StageFull = "full"
	StageRaw  = "raw"
	StageProc = "proc"
)

// Dumper writes debug images into a directory, keeping only the newest files.
// A nil Dumper discards everything.
type Dumper struct {
	dir          string
	files        []string
	maxSize      int
	currentIndex int
	count        int
	mu           sync.Mutex
}

// NewDumper creates the directory and a ring of keep files
func NewDumper(dir string, keep int) (*Dumper, error) {
	if keep < 1 {
		return nil, fmt.Errorf("dump ring must keep at least one file, got %d", keep)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	return &Dumper{
		dir:     dir,
		files:   make([]string, keep),
		maxSize: keep,
	}, nil
}

// Dump writes img as <stage>-<region>-<uuid>.png, evicting the oldest file
// when the ring is full. Empty images are skipped.
func (d *Dumper) Dump(stage, region string, img image.Image) (string, error) {
	if d == nil || IsEmpty(img) {
		return "", nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name := filepath.Join(d.dir, fmt.Sprintf("%s-%s-%s.png", stage, region, uuid.New().String()))
	if err := imaging.Save(img, name); err != nil {
		return "", fmt.Errorf("failed to write dump: %w", err)
	}

	if d.count >= d.maxSize {
		if old := d.files[d.currentIndex]; old != "" {
			if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to evict dump", "file", old, "error", err)
			}
		}
	}

	d.files[d.currentIndex] = name
	d.currentIndex = (d.currentIndex + 1) % d.maxSize
	if d.count < d.maxSize {
		d.count++
	}
	return name, nil
}

// Files returns the retained dump paths, oldest first
func (d *Dumper) Files() []string {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, d.count)
	start := (d.currentIndex - d.count + d.maxSize) % d.maxSize
	for i := 0; i < d.count; i++ {
		out = append(out, d.files[(start+i)%d.maxSize])
	}
	return out
}

// Probe file names, fixed so repeated probes overwrite each other
const (
	ProbeFull = "full.png"
	ProbeRaw  = "roi_raw.png"
	ProbeProc = "roi_proc.png"
)

// WriteProbe saves the three probe stages into dir and returns the written paths.
// Empty stages are skipped.
func WriteProbe(dir string, full, raw, proc image.Image) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create probe directory: %w", err)
	}

	var written []string
	for _, s := range []struct {
		name string
		img  image.Image
	}{
		{ProbeFull, full},
		{ProbeRaw, raw},
		{ProbeProc, proc},
	} {
		if IsEmpty(s.img) {
			continue
		}
		path := filepath.Join(dir, s.name)
		if err := imaging.Save(s.img, path); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", s.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
