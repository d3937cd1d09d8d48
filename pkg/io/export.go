package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/history"
)

// WriteCommits encodes commits as a history document and writes it to w.
// The output can be read back with [ReadCommits].
func WriteCommits(w io.Writer, commits []history.Commit, format Format) error {
	if commits == nil {
		commits = []history.Commit{}
	}
	doc := document{Version: Version, Commits: commits}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	default:
		return lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unknown history format %q", format)
	}
}

// ExportCommits writes commits to a file at path, choosing the encoder by
// extension.
func ExportCommits(path string, commits []history.Commit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCommits(f, commits, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
