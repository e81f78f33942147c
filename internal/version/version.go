// Package version holds the owl build information. The variables can be
// overridden at build time via -ldflags.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
	detailColor  = color.New(color.Faint)
)

// Banner renders the one-line version banner. Colors follow color.NoColor.
func Banner() string {
	var b strings.Builder
	b.WriteString(nameColor.Sprint("owl"))
	b.WriteString(" ")
	b.WriteString(versionColor.Sprint(Version))
	var details []string
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		details = append(details, "commit "+commit)
	}
	if BuildDate != "" {
		details = append(details, "built "+BuildDate)
	}
	if len(details) > 0 {
		b.WriteString(" ")
		b.WriteString(detailColor.Sprint(fmt.Sprintf("(%s)", strings.Join(details, ", "))))
	}
	return b.String()
}
