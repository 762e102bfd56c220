// Package projection maps a late submission's extended placement back onto
// the original contest's performance curve.
package projection

import (
	model "github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/internal/domain/standings"
)

// Result holds the extended placement and its original-contest equivalents.
type Result struct {
	ExtendedRank *int
	EquivRank    *int
	EquivPerf    *int
}

// Pick chooses the user's extended row: the first one without an original
// placement, otherwise the first one.
func Pick(rows []model.ExtendedRow, user string) (model.ExtendedRow, bool) {
	var (
		first model.ExtendedRow
		found bool
	)
	for _, r := range rows {
		if r.User != user {
			continue
		}
		if r.ContestRank == nil {
			return r, true
		}
		if !found {
			first, found = r, true
		}
	}
	return first, found
}

// EquivalentRank is one plus the number of originally ranked rows placed
// strictly above rank in the extended standings. Late entrants do not count.
func EquivalentRank(rows []model.ExtendedRow, rank int) int {
	above := 0
	for _, r := range rows {
		if r.Rank != nil && r.ContestRank != nil && *r.Rank < rank {
			above++
		}
	}
	return above + 1
}

// Project computes the user's extended placement, equivalent placement and
// equivalent performance. It returns all nil when the index is empty, the user
// has no extended row or the chosen row has no placement.
func Project(rows []model.ExtendedRow, user string, index standings.PlaceIndex) Result {
	if len(index) == 0 || user == "" {
		return Result{}
	}
	row, ok := Pick(rows, user)
	if !ok || row.Rank == nil {
		return Result{}
	}

	rank := *row.Rank
	equiv := EquivalentRank(rows, rank)
	res := Result{
		ExtendedRank: model.IntPtr(rank),
		EquivRank:    model.IntPtr(equiv),
	}
	if perf, ok := index.Perf(equiv); ok {
		res.EquivPerf = model.IntPtr(perf)
	}
	return res
}
