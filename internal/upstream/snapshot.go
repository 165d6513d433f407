// Package upstream reads the data-fetching layer's raw records from snapshot
// files. YAML and JSON snapshots are both accepted.
package upstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/home-focus/go-core/internal/signals"
)

// Snapshot is one upstream fetch: the per-system records and the home aggregate.
type Snapshot struct {
	Home    signals.RawHomeScore      `json:"home" yaml:"home"`
	Records []signals.RawSystemRecord `json:"records" yaml:"records"`
}

// ErrEmptySnapshot is returned for a document with no content.
var ErrEmptySnapshot = errors.New("empty snapshot")

// Decode parses a single snapshot document. Unknown fields are rejected so a
// typo in a field name does not silently read as "unknown".
func Decode(r io.Reader) (Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return Snapshot{}, ErrEmptySnapshot
		}
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Load reads the snapshot at path.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Context normalizes the snapshot.
func (s Snapshot) Context(cfg signals.NormalizeConfig) (signals.NarrativeContext, signals.Report) {
	return signals.Normalize(s.Records, s.Home, cfg)
}
