//go:build !noclipboard

package clipboard

import (
	xclipboard "golang.design/x/clipboard"
)

// Init initializes the clipboard
func Init() error {
	return xclipboard.Init()
}

// Write writes data to clipboard in the specified format
func Write(format Format, data []byte) {
	xclipboard.Write(toSystem(format), data)
}

func toSystem(format Format) xclipboard.Format {
	if format == FmtImage {
		return xclipboard.FmtImage
	}
	return xclipboard.FmtText
}
