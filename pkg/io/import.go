package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/history"
)

// Format is a file encoding for commit histories.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Version is the document version written by [WriteCommits].
const Version = 1

type document struct {
	Version int              `json:"version" yaml:"version"`
	Commits []history.Commit `json:"commits" yaml:"commits"`
}

// FormatFromPath returns the encoding implied by the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadCommits decodes a history document from r.
//
// A document without a version field is accepted as version 1. ReadCommits
// returns an INVALID_FORMAT error for malformed input, an unknown version or
// a commit without a hash. It does not close r.
func ReadCommits(r io.Reader, format Format) ([]history.Commit, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatJSON, "":
		err = json.NewDecoder(r).Decode(&doc)
	default:
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unknown history format %q", format)
	}
	if err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}

	if doc.Version != 0 && doc.Version != Version {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unsupported history version %d", doc.Version)
	}
	for i, c := range doc.Commits {
		if c.Hash == "" {
			return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "commit %d has no hash", i)
		}
	}
	if doc.Commits == nil {
		doc.Commits = []history.Commit{}
	}
	return doc.Commits, nil
}

// ImportCommits reads a history file, choosing the decoder by extension.
func ImportCommits(path string) ([]history.Commit, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCommits(f, FormatFromPath(path))
}
