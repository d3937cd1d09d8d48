package topology

// slotRef addresses a connection record in the node arena.
type slotRef struct {
	row  int
	slot int
}

// reservation is a pending expectation that a hash appears next on lane.
// refs lists every connection recorded so far that targets the hash, so a
// lane transfer can patch them by direct index.
type reservation struct {
	lane int
	refs []slotRef
}

// allocator holds the state of one forward pass. Nothing in it outlives
// the Build call that created it.
type allocator struct {
	idx   *Index
	nodes []Node

	// lanes[i] is the hash reserved on lane i, or "" when the lane is free.
	lanes []string
	// colors[i] is the color of the current occupancy of lane i.
	colors []int

	reserved  map[string]*reservation
	nextColor int
}

func newAllocator(idx *Index, rows int) *allocator {
	return &allocator{
		idx:      idx,
		nodes:    make([]Node, rows),
		reserved: make(map[string]*reservation),
	}
}

// place lays out the commit on row.
func (a *allocator) place(row int, c Commit) {
	lane, color := a.claim(c.Hash)
	parents := distinct(c.Parents)

	n := &a.nodes[row]
	n.Hash = c.Hash
	n.Row = row
	n.Lane = lane
	n.Color = color
	n.Merge = len(parents) > 1

	if len(parents) == 0 || !a.idx.Below(parents[0], row) {
		a.release(lane)
	} else {
		a.primary(row, lane, color, parents[0])
	}

	if len(parents) < 2 {
		return
	}
	for _, p := range parents[1:] {
		if !a.idx.Below(p, row) {
			continue
		}
		if res, ok := a.reserved[p]; ok {
			a.link(row, p, lane, res.lane, a.colors[res.lane])
			continue
		}
		target := a.nearestFree(lane)
		pc := a.freshColor()
		a.reserve(p, target, pc)
		a.link(row, p, lane, target, pc)
	}
}

// claim returns the lane and color of hash. A reserved hash takes its
// reservation; anything else starts a new occupancy on the lowest free lane.
func (a *allocator) claim(hash string) (int, int) {
	if res, ok := a.reserved[hash]; ok {
		delete(a.reserved, hash)
		a.lanes[res.lane] = ""
		return res.lane, a.colors[res.lane]
	}
	lane := a.firstFree()
	a.colors[lane] = a.freshColor()
	return lane, a.colors[lane]
}

// primary connects the first parent, preferring the child's own lane.
func (a *allocator) primary(row, lane, color int, parent string) {
	res, ok := a.reserved[parent]
	switch {
	case !ok:
		a.reserve(parent, lane, color)
		a.link(row, parent, lane, lane, color)
	case lane < res.lane:
		// Lower lane wins: move the reservation here and retarget every
		// record already pointing at the old lane.
		a.release(res.lane)
		res.lane = lane
		a.lanes[lane] = parent
		a.colors[lane] = color
		for _, ref := range res.refs {
			a.nodes[ref.row].Parents[ref.slot].ToLane = lane
		}
		a.link(row, parent, lane, lane, color)
	default:
		a.link(row, parent, lane, res.lane, color)
		a.release(lane)
	}
}

// link appends a connection record to the node on row and registers it
// with the parent's reservation.
func (a *allocator) link(row int, parent string, from, to, color int) {
	n := &a.nodes[row]
	n.Parents = append(n.Parents, Connection{
		Parent:   parent,
		FromLane: from,
		ToLane:   to,
		Color:    color,
	})
	if res, ok := a.reserved[parent]; ok {
		res.refs = append(res.refs, slotRef{row: row, slot: len(n.Parents) - 1})
	}
}

func (a *allocator) reserve(hash string, lane, color int) {
	a.lanes[lane] = hash
	a.colors[lane] = color
	a.reserved[hash] = &reservation{lane: lane}
}

func (a *allocator) release(lane int) {
	a.lanes[lane] = ""
}

func (a *allocator) free(lane int) bool {
	return lane >= 0 && lane < len(a.lanes) && a.lanes[lane] == ""
}

// firstFree returns the lowest free lane, growing the lane set if needed.
func (a *allocator) firstFree() int {
	for i, h := range a.lanes {
		if h == "" {
			return i
		}
	}
	return a.grow()
}

// nearestFree picks a lane for a secondary parent of a commit on lane:
// immediately right, immediately left, then the first free lane.
func (a *allocator) nearestFree(lane int) int {
	switch {
	case lane+1 == len(a.lanes):
		return a.grow()
	case a.free(lane + 1):
		return lane + 1
	case a.free(lane - 1):
		return lane - 1
	}
	return a.firstFree()
}

func (a *allocator) grow() int {
	a.lanes = append(a.lanes, "")
	a.colors = append(a.colors, 0)
	return len(a.lanes) - 1
}

func (a *allocator) freshColor() int {
	c := a.nextColor
	a.nextColor++
	return c
}

// distinct drops repeated and empty parent hashes, keeping first occurrences.
func distinct(parents []string) []string {
	if len(parents) < 2 {
		if len(parents) == 1 && parents[0] == "" {
			return nil
		}
		return parents
	}
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		if p == "" {
			continue
		}
		dup := false
		for _, q := range out {
			if q == p {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
