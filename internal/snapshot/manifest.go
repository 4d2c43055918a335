package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	manifestVersion = "1"
	timestampLayout = "2006-01-02T15-04-05Z"
)

// Manifest describes the files of one snapshot
type Manifest struct {
	SnapshotTimestamp string         `json:"snapshotTimestamp"`
	SnapshotVersion   string         `json:"snapshotVersion"`
	Year              int            `json:"year"`
	Series            []string       `json:"series"`
	Files             []FileManifest `json:"files"`
	Observations      int            `json:"observations"`
	TouchedDays       int            `json:"touchedDays"`
	Checksum          string         `json:"checksum"` // over the file checksums
}

// FileManifest contains metadata for a single snapshot file
type FileManifest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
	Checksum    string `json:"checksum"`
}

// Seal computes the manifest checksum from its file checksums
func (m *Manifest) Seal() {
	h := sha256.New()
	for _, f := range m.Files {
		h.Write([]byte(f.FileName))
		h.Write([]byte(f.Checksum))
	}
	m.Checksum = hex.EncodeToString(h.Sum(nil))
}

// Verify checks the manifest checksum and, when contents is non-nil, the
// checksum of every listed file present in contents
func (m *Manifest) Verify(contents map[string][]byte) error {
	sealed := *m
	sealed.Seal()
	if sealed.Checksum != m.Checksum {
		return fmt.Errorf("manifest checksum mismatch")
	}

	for _, f := range m.Files {
		data, ok := contents[f.FileName]
		if !ok {
			continue
		}
		if sum := Checksum(data); sum != f.Checksum {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", f.FileName, f.Checksum, sum)
		}
	}
	return nil
}

// WriteManifest writes the manifest to a file
func WriteManifest(path string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ReadManifest reads and parses a manifest file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data)
}

// ParseManifest parses manifest JSON
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// Checksum returns the hex SHA256 of data
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CalculateFileChecksum calculates SHA256 checksum of a file
func CalculateFileChecksum(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file for checksum: %w", err)
	}
	return Checksum(data), nil
}

// FormatTimestamp formats t for snapshot directory names
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a snapshot timestamp string
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(timestampLayout, ts)
}
