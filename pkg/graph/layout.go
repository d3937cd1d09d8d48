package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
)

// =============================================================================
// Layout - Serialized Lane Layout
// =============================================================================

// Layout is the serialization format for a computed lane layout.
type Layout struct {
	Version  int   `json:"version"`
	MaxLanes int   `json:"max_lanes"`
	Rows     []Row `json:"rows"`
}

// Hashes returns the hash of each row in order.
func (l Layout) Hashes() []string {
	out := make([]string, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r.Hash
	}
	return out
}

func (l Layout) checkLane(row, lane int) error {
	if lane < 0 || lane >= l.MaxLanes {
		return lgerrors.New(lgerrors.ErrCodeInvalidFormat, "row %d: lane %d outside [0, %d)", row, lane, l.MaxLanes)
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	if l.Rows == nil {
		l.Rows = []Row{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// A missing version is read as the current one; any other mismatch fails.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}

	if l.Version == 0 {
		l.Version = LayoutVersion
	}
	if l.Version != LayoutVersion {
		return Layout{}, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unsupported layout version %d", l.Version)
	}
	if len(l.Rows) > 0 && l.MaxLanes <= 0 {
		return Layout{}, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "layout with rows must have max_lanes > 0")
	}
	for i, r := range l.Rows {
		if r.Hash == "" {
			return Layout{}, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "row %d has no hash", i)
		}
	}
	// Renderers size every row by MaxLanes, so it may not exceed the lanes
	// the rows actually use.
	if used := l.highestLane() + 1; l.MaxLanes > used || l.MaxLanes < 0 {
		return Layout{}, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "max_lanes %d does not match the %d lanes used by the rows", l.MaxLanes, used)
	}

	return l, nil
}

// highestLane returns the largest lane index any row refers to, or -1 for
// a layout without rows.
func (l Layout) highestLane() int {
	top := -1
	for _, r := range l.Rows {
		top = max(top, r.Lane)
		for _, e := range r.Parents {
			top = max(top, e.From, e.To)
		}
		for _, s := range r.Incoming {
			top = max(top, s.Lane)
		}
		for _, p := range r.Passing {
			top = max(top, p.Lane)
		}
	}
	return top
}

// WriteLayout writes a Layout as JSON to an io.Writer.
func WriteLayout(l Layout, w io.Writer) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ReadLayout decodes a Layout from an io.Reader.
func ReadLayout(r io.Reader) (Layout, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return UnmarshalLayout(buf.Bytes())
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
