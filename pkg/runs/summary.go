package runs

import (
	"cmp"
	"slices"
)

// Summary aggregates outcomes over a run list, in the shape the evaluation
// harness reports them.
type Summary struct {
	Total            int        `json:"total"`
	Malformed        int        `json:"malformed"`
	Wins             int        `json:"wins"`
	Losses           int        `json:"losses"`
	WinRate          float64    `json:"win_rate"`
	LoseRate         float64    `json:"lose_rate"`
	HopsDistribution []int      `json:"hops_distribution"`
	AverageHops      float64    `json:"average_hops"`
	Pairs            []PairStat `json:"pairs,omitempty"`
}

// PairStat counts runs per start/destination pair.
type PairStat struct {
	Start       string `json:"start"`
	Destination string `json:"destination"`
	Runs        int    `json:"runs"`
	Wins        int    `json:"wins"`
}

// Summarize computes outcome statistics. Hops are only collected for wins,
// and the average is zero when nothing was won. Malformed runs count towards
// Total and Losses like any other run, and are additionally tallied in
// Malformed. Pairs are sorted by descending run count, then by name.
func Summarize(rs []Run) Summary {
	s := Summary{Total: len(rs), HopsDistribution: []int{}}
	pairs := map[[2]string]*PairStat{}

	for _, r := range rs {
		if !r.Valid() {
			s.Malformed++
		}
		key := [2]string{r.StartArticle, r.DestinationArticle}
		p, ok := pairs[key]
		if !ok {
			p = &PairStat{Start: r.StartArticle, Destination: r.DestinationArticle}
			pairs[key] = p
		}
		p.Runs++

		if r.Outcome() == ResultWin {
			s.Wins++
			p.Wins++
			s.HopsDistribution = append(s.HopsDistribution, r.Hops())
		} else {
			s.Losses++
		}
	}

	if s.Total > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Total)
		s.LoseRate = float64(s.Losses) / float64(s.Total)
	}
	if n := len(s.HopsDistribution); n > 0 {
		sum := 0
		for _, h := range s.HopsDistribution {
			sum += h
		}
		s.AverageHops = float64(sum) / float64(n)
	}

	for _, p := range pairs {
		s.Pairs = append(s.Pairs, *p)
	}
	slices.SortFunc(s.Pairs, func(a, b PairStat) int {
		if c := cmp.Compare(b.Runs, a.Runs); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Destination, b.Destination)
	})
	return s
}
