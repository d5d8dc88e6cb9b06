//go:build noclipboard

package clipboard

import "errors"

// Init always fails in builds without clipboard support
func Init() error {
	return errors.New("built with noclipboard")
}

// Write is a no-op in builds without clipboard support
func Write(format Format, data []byte) {}
