// Package deps reports availability of the external binaries the pipeline
// shells out to. Missing optional tools degrade features; they never block
// daemon startup.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"conveyor/internal/config"
)

// Requirement defines one external binary the pipeline invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// ForConfig lists the binaries the configured pipeline will invoke.
// ffprobe is optional: ingestion falls back to extension-derived metadata.
func ForConfig(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Render.FFmpegBinary,
			Description: "Extracts short-form clips from source media",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Render.FFprobeBinary,
			Description: "Probes source media metadata during ingestion",
			Optional:    true,
		},
	}
}

// Check resolves each requirement on PATH and reports what was found.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		status.Command = strings.TrimSpace(req.Command)

		switch {
		case status.Command == "":
			status.Detail = "command not configured"
		default:
			resolved, err := exec.LookPath(status.Command)
			if err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", status.Command)
			} else {
				status.Available = true
				status.Detail = resolved
			}
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional binaries.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
