package build

import (
	_ "crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/osforge/forge/internal/paths"
)

// File name of the report inside the distribution directory.
const ReportFileName = "build-report.json"

// Summary of a successful build run.
type Report struct {
	RunID      string            `json:"run_id"`
	Target     string            `json:"target"`
	Started    time.Time         `json:"started"`
	DurationMS int64             `json:"duration_ms"`
	Components []ComponentReport `json:"components"`
}

// Report entry for one component.
type ComponentReport struct {
	Name       string       `json:"name"`
	Target     string       `json:"target"`
	Profile    string       `json:"profile"`
	Output     string       `json:"output"`
	DurationMS int64        `json:"duration_ms"`
	Files      []FileDigest `json:"files,omitempty"`
}

// Content digest of a file placed in the staging root.
type FileDigest struct {
	Path   string        `json:"path"` // Absolute path inside the image.
	Digest digest.Digest `json:"digest"`
	Size   int64         `json:"size"`
}

// Builds a report from a finished run.
//
// Libraries carry the digest taken when the component copied them, since a
// library shipped by several components is overwritten by the last writer.
// Artifacts are digested now so post-copy script edits are reflected.
func NewReport(result *Result) (*Report, error) {
	report := &Report{
		RunID:      result.RunID,
		Target:     result.Target,
		Started:    result.Started.UTC(),
		DurationMS: result.Duration.Milliseconds(),
		Components: make([]ComponentReport, 0, len(result.Outcomes)),
	}

	for _, o := range result.Outcomes {
		entry := ComponentReport{
			Name:       o.Name,
			Target:     o.Target,
			Profile:    o.Profile,
			Output:     o.Output,
			DurationMS: o.Duration.Milliseconds(),
		}
		for _, placed := range o.Placed {
			fd, err := placedDigest(placed, result.Rootfs)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrReport, err)
			}
			entry.Files = append(entry.Files, fd)
		}
		report.Components = append(report.Components, entry)
	}
	return report, nil
}

// Writes the report as indented JSON into dir and returns the file path.
func (r *Report) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReport, err)
	}
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, append(data, '\n'), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReport, err)
	}
	return path, nil
}

// Returns the digest recorded at copy time, or digests the file now.
func placedDigest(p PlacedFile, rootfs string) (FileDigest, error) {
	if p.Digest == "" {
		return digestFile(p.Path, rootfs)
	}
	path, err := imagePath(p.Path, rootfs)
	if err != nil {
		return FileDigest{}, err
	}
	return FileDigest{Path: path, Digest: p.Digest, Size: p.Size}, nil
}

// Maps a staging path back to its absolute path inside the image.
func imagePath(path, rootfs string) (string, error) {
	rel, err := filepath.Rel(rootfs, path)
	if err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(rel), nil
}

// Digests a staged file and records its path relative to the image root.
func digestFile(path, rootfs string) (FileDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileDigest{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileDigest{}, err
	}

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return FileDigest{}, err
	}

	rel, err := imagePath(path, rootfs)
	if err != nil {
		return FileDigest{}, err
	}
	return FileDigest{
		Path:   rel,
		Digest: d,
		Size:   info.Size(),
	}, nil
}
