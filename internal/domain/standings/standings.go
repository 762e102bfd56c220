// Package standings looks a participant up in a contest's original standings.
package standings

import (
	model "github.com/okian/ahcview/internal/domain/model"
)

// PlaceIndex maps a placement to the lowest performance seen at it.
type PlaceIndex map[int]int

// Perf returns the performance recorded for place, if any.
func (p PlaceIndex) Perf(place int) (int, bool) {
	v, ok := p[place]
	return v, ok
}

// Result is the outcome of Lookup.
type Result struct {
	Rank  *int
	Perf  *int
	Index PlaceIndex
}

// BuildIndex collects every row that has both a placement and a performance.
// Tied placements keep the minimum performance.
func BuildIndex(rows []model.StandingsRow) PlaceIndex {
	index := make(PlaceIndex, len(rows))
	for _, row := range rows {
		if row.Rank == nil || row.Performance == nil {
			continue
		}
		if cur, ok := index[*row.Rank]; ok && cur <= *row.Performance {
			continue
		}
		index[*row.Rank] = *row.Performance
	}
	return index
}

// Lookup finds user in rows and builds the place index. When user appears more
// than once the last row wins. An empty user never matches.
func Lookup(rows []model.StandingsRow, user string) Result {
	res := Result{Index: BuildIndex(rows)}
	if user == "" {
		return res
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].User != user {
			continue
		}
		res.Rank = copyInt(rows[i].Rank)
		res.Perf = copyInt(rows[i].Performance)
		break
	}
	return res
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return model.IntPtr(*v)
}
