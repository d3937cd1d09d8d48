package render

import (
	"regexp"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
)

// Palette is an ordered list of CSS hex colors. Color indices produced by
// the lane engine grow without bound; the palette cycles.
type Palette []string

// DefaultPalette is used when no palette is configured.
var DefaultPalette = Palette{
	"#1f77b4", // blue
	"#ff7f0e", // orange
	"#2ca02c", // green
	"#d62728", // red
	"#9467bd", // purple
	"#8c564b", // brown
	"#e377c2", // pink
	"#17becf", // cyan
	"#bcbd22", // olive
	"#7f7f7f", // grey
}

// Color returns the color for index i. An empty palette falls back to
// [DefaultPalette]; negative indices are treated as 0.
func (p Palette) Color(i int) string {
	if len(p) == 0 {
		p = DefaultPalette
	}
	if i < 0 {
		i = 0
	}
	return p[i%len(p)]
}

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks that every entry is a #rgb or #rrggbb color.
func (p Palette) Validate() error {
	for i, c := range p {
		if !hexColorRe.MatchString(c) {
			return lgerrors.New(lgerrors.ErrCodeInvalidConfig, "palette entry %d: %q is not a hex color", i, c)
		}
	}
	return nil
}

// LaneX returns the horizontal center of lane for columns laneWidth wide.
func LaneX(lane int, laneWidth float64) float64 {
	return laneWidth/2 + float64(lane)*laneWidth
}
