package pipeline

import (
	"testing"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/render/rail"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"nodelink", false},
		{"text", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, lgerrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "text"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should be valid: %v", err)
	}

	if opts.RepoDir != "." {
		t.Errorf("RepoDir = %q, want \".\"", opts.RepoDir)
	}
	if opts.MaxCount != DefaultMaxCount {
		t.Errorf("MaxCount = %d, want %d", opts.MaxCount, DefaultMaxCount)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.LaneWidth != rail.DefaultLaneWidth || opts.RowHeight != rail.DefaultRowHeight || opts.NodeRadius != rail.DefaultNodeRadius {
		t.Errorf("geometry = %v/%v/%v", opts.LaneWidth, opts.RowHeight, opts.NodeRadius)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v", opts.Scale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsInputSkipsRepo(t *testing.T) {
	opts := Options{Input: "history.json"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Fatal(err)
	}
	if opts.RepoDir != "" {
		t.Errorf("RepoDir = %q, want empty with Input", opts.RepoDir)
	}
	if opts.Source() != "history.json" {
		t.Errorf("Source() = %q", opts.Source())
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code lgerrors.Code
	}{
		{"bad ref", Options{Refs: []string{"--all"}}, lgerrors.ErrCodeInvalidRef},
		{"bad format", Options{Formats: []string{"gif"}}, lgerrors.ErrCodeInvalidInput},
		{"radius too large", Options{RowHeight: 10, NodeRadius: 6}, lgerrors.ErrCodeInvalidInput},
		{"bad palette", Options{Palette: []string{"red"}}, lgerrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if !lgerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsFilter(t *testing.T) {
	repo := Options{RepoDir: ".", Authors: []string{"ada"}, Grep: "fix"}
	if f := repo.Filter(); len(f.Authors) != 0 || f.Grep != "fix" {
		t.Errorf("repo filter = %+v; git filters authors itself", f)
	}
	if lo := repo.LogOptions(); len(lo.Authors) != 1 {
		t.Errorf("LogOptions.Authors = %v", lo.Authors)
	}

	file := Options{Input: "h.json", Authors: []string{"ada"}}
	if f := file.Filter(); len(f.Authors) != 1 {
		t.Errorf("file filter = %+v", f)
	}

	unlimited := Options{MaxCount: -1}
	if lo := unlimited.LogOptions(); lo.MaxCount != 0 {
		t.Errorf("negative MaxCount should read everything, got %d", lo.MaxCount)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := Options{LaneWidth: 16, Palette: []string{"#000"}, Labels: true}
	b := a
	b.LaneWidth = 20

	if a.ArtifactKeyOpts("svg").LaneWidth == b.ArtifactKeyOpts("svg").LaneWidth {
		t.Error("lane width should key SVG artifacts")
	}
	if a.ArtifactKeyOpts("dot").LaneWidth != 0 {
		t.Error("lane width should not key DOT artifacts")
	}
	if a.ArtifactKeyOpts("json").Labels {
		t.Error("labels should not key JSON artifacts")
	}
	if b.Scale = 3; a.ArtifactKeyOpts("svg").Scale != b.ArtifactKeyOpts("svg").Scale {
		t.Error("scale should only key PNG artifacts")
	}
}
