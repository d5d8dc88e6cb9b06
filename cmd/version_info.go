package cmd

import domain "github.com/berth-automation/berth/internal/domain"

// GetVersionInfo returns the current version information
func GetVersionInfo() domain.VersionInfo {
	return domain.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
