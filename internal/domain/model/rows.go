package model

import (
	"encoding/json"
	"math"
)

// StandingsRow is one participant's entry in a contest's original standings.
type StandingsRow struct {
	User        string `json:"user"`
	Rank        *int   `json:"rank"`
	Performance *int   `json:"performance"`
}

// ExtendedRow is one entry of the extension-window standings. ContestRank is
// set only for participants who were ranked in the original contest.
type ExtendedRow struct {
	User        string `json:"user"`
	Rank        *int   `json:"rank"`
	ContestRank *int   `json:"contest_rank"`
}

// UnmarshalJSON never fails: a row that is not an object decodes as the zero
// row and fields of the wrong type decode as absent.
func (r *StandingsRow) UnmarshalJSON(data []byte) error {
	fields := objectFields(data)
	*r = StandingsRow{
		User:        StringField(fields["user"]),
		Rank:        IntField(fields["rank"]),
		Performance: IntField(fields["performance"]),
	}
	return nil
}

// UnmarshalJSON follows the same leniency rules as StandingsRow.
func (r *ExtendedRow) UnmarshalJSON(data []byte) error {
	fields := objectFields(data)
	*r = ExtendedRow{
		User:        StringField(fields["user"]),
		Rank:        IntField(fields["rank"]),
		ContestRank: IntField(fields["contest_rank"]),
	}
	return nil
}

// StandingsFile is the on-disk form of a contest's original standings.
type StandingsFile struct {
	ContestID ContestID      `json:"contest_id"`
	FetchedAt string         `json:"fetched_at"`
	RunID     string         `json:"run_id,omitempty"`
	Rows      []StandingsRow `json:"rows"`
}

// ExtendedFile is the on-disk form of a contest's extension-window standings.
type ExtendedFile struct {
	ContestID ContestID     `json:"contest_id"`
	FetchedAt string        `json:"fetched_at"`
	RunID     string        `json:"run_id,omitempty"`
	Rows      []ExtendedRow `json:"rows"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

func objectFields(data []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

// StringField decodes a JSON string, yielding "" for anything else.
func StringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// IntField decodes an integral JSON number that fits an int32. Anything else,
// including null and fractional numbers, yields nil.
func IntField(raw json.RawMessage) *int {
	var f *float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil || f == nil {
		return nil
	}
	if *f != math.Trunc(*f) || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	return IntPtr(int(*f))
}
