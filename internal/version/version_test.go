package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate, origNoColor := Version, GitCommit, BuildDate, color.NoColor
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = origVersion, origCommit, origDate, origNoColor
	})
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
}

func TestBanner(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		date   string
		want   string
	}{
		{name: "bare", want: "owl 1.2.3"},
		{name: "commit", commit: "1234567890abcdef", want: "owl 1.2.3 (commit 1234567890ab)"},
		{name: "short commit and date", commit: "abc123", date: "2026-01-15", want: "owl 1.2.3 (commit abc123, built 2026-01-15)"},
		{name: "date", date: "2026-01-15", want: "owl 1.2.3 (built 2026-01-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, "1.2.3", tt.commit, tt.date)
			assert.Equal(t, tt.want, Banner())
		})
	}
}

func TestDefaultVersion(t *testing.T) {
	assert.NotEmpty(t, Version)
}
