package fetcher

import (
	"encoding/json"
	"math"
	"sort"

	model "github.com/okian/ahcview/internal/domain/model"
)

const extendedContestRankKey = "standings.extendedContestRank"

// resultEntry is one element of the upstream results array.
type resultEntry struct {
	UserScreenName json.RawMessage
	Place          json.RawMessage
	Performance    json.RawMessage
}

// extendedStandings is the upstream extended standings document.
type extendedStandings struct {
	StandingsData []extendedEntry
}

type extendedEntry struct {
	UserScreenName json.RawMessage
	Rank           json.RawMessage
	Additional     map[string]json.RawMessage
}

// simplifyResults keeps the user, placement and performance of each entry,
// ordered by placement with unplaced entries last, then by user.
func simplifyResults(entries []resultEntry) []model.StandingsRow {
	rows := make([]model.StandingsRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, model.StandingsRow{
			User:        model.StringField(e.UserScreenName),
			Rank:        model.IntField(e.Place),
			Performance: model.IntField(e.Performance),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return lessByRank(rows[i].Rank, rows[i].User, rows[j].Rank, rows[j].User)
	})
	return rows
}

// simplifyExtended keeps the user, extended rank and original contest rank
// of each entry, in the same order as simplifyResults.
func simplifyExtended(doc extendedStandings) []model.ExtendedRow {
	rows := make([]model.ExtendedRow, 0, len(doc.StandingsData))
	for _, e := range doc.StandingsData {
		rows = append(rows, model.ExtendedRow{
			User:        model.StringField(e.UserScreenName),
			Rank:        model.IntField(e.Rank),
			ContestRank: model.IntField(e.Additional[extendedContestRankKey]),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return lessByRank(rows[i].Rank, rows[i].User, rows[j].Rank, rows[j].User)
	})
	return rows
}

func lessByRank(ra *int, ua string, rb *int, ub string) bool {
	ka, kb := rankKey(ra), rankKey(rb)
	if ka != kb {
		return ka < kb
	}
	return ua < ub
}

func rankKey(r *int) int {
	if r == nil {
		return math.MaxInt
	}
	return *r
}
