// Package reverseconv implements the deployment core's Reverse-Conversion
// Metadata component (spec.md §2, supplemented in SPEC_FULL.md §4.11): a
// record of one deployment's forward transformation, persisted so a later
// deployment can detect what changed since the last one.
package reverseconv

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// ArtifactSnapshot is one artifact's identity at the moment a deployment
// recorded it.
type ArtifactSnapshot struct {
	Path        string    `json:"path"`
	Component   types.Component `json:"component"`
	ContentHash string    `json:"contentHash"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// Metadata is the persisted record of one deployment's forward
// transformation.
type Metadata struct {
	ID           string             `json:"id"`
	DeploymentID string             `json:"deploymentId"`
	Platform     types.Platform     `json:"platform"`
	RecordedAt   time.Time          `json:"recordedAt"`
	Artifacts    []ArtifactSnapshot `json:"artifacts"`
}

// Store persists and loads Metadata under dir.
type Store struct {
	Dir string
}

// New builds a Store rooted at dir (typically paths.Paths.ReverseConversion()).
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Record snapshots artifacts for one deployment and persists the result,
// keyed by the caller-supplied metadataID.
func (s *Store) Record(metadataID, deploymentID string, platform types.Platform, artifacts []types.TargetArtifact) (Metadata, error) {
	snapshots := make([]ArtifactSnapshot, 0, len(artifacts))
	for _, a := range artifacts {
		snapshots = append(snapshots, ArtifactSnapshot{
			Path:        a.Path,
			Component:   a.Component,
			ContentHash: contentHash(a.Content),
			ModifiedAt:  time.Now(),
		})
	}

	metadata := Metadata{
		ID: metadataID, DeploymentID: deploymentID, Platform: platform,
		RecordedAt: time.Now(), Artifacts: snapshots,
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return Metadata{}, deployerr.Wrap(deployerr.InternalInvariant, "marshal reverse-conversion metadata", err)
	}
	path := filepath.Join(s.Dir, metadataID+".json")
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return Metadata{}, deployerr.Wrap(deployerr.InternalInvariant, "create reverse-conversion directory", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return Metadata{}, deployerr.Wrap(deployerr.InternalInvariant, "write reverse-conversion metadata", err)
	}
	return metadata, nil
}

// Load reads metadataID's record. A missing file reports (Metadata{},
// false, nil); any other read/parse failure reports a non-nil error. This
// standardizes "not-found" handling the way spec.md §9's Design Note asks
// for, instead of conflating "absent" with "corrupt".
func (s *Store) Load(metadataID string) (Metadata, bool, error) {
	path := filepath.Join(s.Dir, metadataID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, deployerr.Wrap(deployerr.InternalInvariant, "read reverse-conversion metadata", err).WithFilePath(path)
	}
	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, false, deployerr.Wrap(deployerr.InternalInvariant, "parse reverse-conversion metadata", err).WithFilePath(path)
	}
	return metadata, true, nil
}
