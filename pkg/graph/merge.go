package graph

// MergedEdge is one directed hop together with every run that took it.
type MergedEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// RunIDs is sorted and without duplicates.
	RunIDs []int `json:"run_ids"`
}

// Weight returns the number of runs that took the hop.
func (e MergedEdge) Weight() int { return len(e.RunIDs) }

// MergeEdges collapses per-run edges into one edge per directed hop, in
// first-encounter order.
func MergeEdges(edges []Edge) []MergedEdge {
	type hop struct{ source, target string }
	index := make(map[hop]int)
	var out []MergedEdge
	for _, e := range edges {
		k := hop{e.Source, e.Target}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MergedEdge{Source: e.Source, Target: e.Target})
		}
		out[i].RunIDs = insertSorted(out[i].RunIDs, e.RunID)
	}
	return out
}
