package topology

import "slices"

// interval is a line occupying a lane until (exclusive) row end.
type interval struct {
	color int
	end   int
}

// computePassing lists, for every row, the lanes crossed by a line that has
// no node on that row.
//
// A connection from row i to row j occupies lane ToLane on the rows strictly
// between them. The pass keeps the active intervals per lane plus a sorted
// list of lanes that have any, and buckets intervals by end row so each one
// is added and removed exactly once.
func computePassing(nodes []Node, idx *Index, maxLanes int) map[int][]PassingLane {
	passing := make(map[int][]PassingLane)
	if len(nodes) == 0 {
		return passing
	}

	active := make([][]interval, maxLanes)
	ending := make([][]int, len(nodes)+1) // end row -> lanes
	var open []int

	for row := range nodes {
		n := &nodes[row]

		var lanes []PassingLane
		for _, lane := range open {
			if lane == n.Lane {
				continue
			}
			ivs := active[lane]
			lanes = append(lanes, PassingLane{Lane: lane, Color: ivs[len(ivs)-1].color})
		}
		if len(lanes) > 0 {
			passing[row] = lanes
		}

		for _, c := range n.Parents {
			end, ok := idx.Row(c.Parent)
			if !ok || end <= row+1 {
				continue
			}
			if len(active[c.ToLane]) == 0 {
				pos, _ := slices.BinarySearch(open, c.ToLane)
				open = slices.Insert(open, pos, c.ToLane)
			}
			active[c.ToLane] = append(active[c.ToLane], interval{color: c.Color, end: end})
			ending[end] = append(ending[end], c.ToLane)
		}

		// Intervals ending on the next row do not cross it.
		for _, lane := range ending[row+1] {
			ivs := active[lane]
			if i := slices.IndexFunc(ivs, func(iv interval) bool { return iv.end == row+1 }); i >= 0 {
				active[lane] = slices.Delete(ivs, i, i+1)
			}
			if len(active[lane]) == 0 {
				if pos, found := slices.BinarySearch(open, lane); found {
					open = slices.Delete(open, pos, pos+1)
				}
			}
		}
		ending[row+1] = nil
	}
	return passing
}
