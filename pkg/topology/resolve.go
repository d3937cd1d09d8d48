package topology

// resolveIncoming derives the per-row segments from the finalized parent
// connections. It must run after every lane transfer has been patched.
//
// Same-lane lines and merge bends are recorded on the parent's row. A
// non-merge commit whose parent lives on another lane bends on its own row,
// so that record stays on the child.
func resolveIncoming(nodes []Node, idx *Index) {
	for row := range nodes {
		n := &nodes[row]
		for _, c := range n.Parents {
			prow, ok := idx.Row(c.Parent)
			if !ok {
				continue
			}
			p := &nodes[prow]

			switch {
			case !c.CrossLane():
				p.Incoming = append(p.Incoming, Incoming{Lane: c.ToLane, Color: c.Color})
				if p.Lane == c.ToLane {
					p.LineFromAbove = true
				}
			case n.Merge:
				p.Incoming = append(p.Incoming, Incoming{Lane: c.ToLane, Color: c.Color})
			default:
				n.Incoming = append(n.Incoming, Incoming{Lane: c.ToLane, Color: c.Color, AtSource: true})
			}
		}
	}
}
