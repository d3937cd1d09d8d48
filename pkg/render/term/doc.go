// Package term draws a lane topology with box-drawing characters, one text
// line per commit, for terminals.
//
//	◉─╮ a1b2c3d (HEAD, main) Merge branch 'dev'
//	● │ 5a4b3c2 Update docs
//	├─● 9f8e7d6 (dev) Fix lane colors
//	●   0c1d2e3 Initial commit
//
// Each lane takes two columns. Lines are colored with lipgloss using the
// same palette indices as the SVG renderer; set [Options.Plain] to get bare
// glyphs. [Window] renders a slice of rows for the interactive viewer.
package term
