// Package catalog resolves the ordered list of contests to evaluate.
package catalog

import (
	"sort"

	model "github.com/okian/ahcview/internal/domain/model"
)

// Resolve merges the configured lists into display order: regular contests by
// descending numeric suffix, then the other contests as configured.
// Blank entries are dropped and duplicates keep their first occurrence,
// regular list first.
func Resolve(lists model.ContestLists) []model.ContestID {
	seen := make(map[model.ContestID]struct{}, len(lists.Normal)+len(lists.Other))
	regular := collect(lists.Normal, seen)
	other := collect(lists.Other, seen)

	sort.SliceStable(regular, func(i, j int) bool {
		return before(regular[i], regular[j])
	})

	out := make([]model.ContestID, 0, len(regular)+len(other))
	out = append(out, regular...)
	return append(out, other...)
}

func collect(raw []string, seen map[model.ContestID]struct{}) []model.ContestID {
	out := make([]model.ContestID, 0, len(raw))
	for _, r := range raw {
		id := model.NewContestID(r)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// before orders numbered IDs first (highest number first), then the rest;
// anything still tied falls back to descending lexicographic order.
func before(a, b model.ContestID) bool {
	na, okA := a.Number()
	nb, okB := b.Number()
	switch {
	case okA && okB && na != nb:
		return na > nb
	case okA != okB:
		return okA
	default:
		return a > b
	}
}

// SkipsExtended reports whether id is listed in skip_extended.
func SkipsExtended(lists model.ContestLists, id model.ContestID) bool {
	for _, raw := range lists.SkipExtended {
		if model.NewContestID(raw) == id {
			return true
		}
	}
	return false
}
