// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContestID is a case-normalized contest identifier such as "ahc045".
type ContestID string

// NewContestID trims and lower-cases raw. A blank input yields the empty ID.
func NewContestID(raw string) ContestID {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// cases.Caser keeps state and is not safe for concurrent use.
	return ContestID(cases.Lower(language.Und).String(trimmed))
}

// String returns the normalized form used for storage keys.
func (c ContestID) String() string { return string(c) }

// Display returns the upper-case form shown to users.
func (c ContestID) Display() string {
	return cases.Upper(language.Und).String(string(c))
}

// Number extracts the trailing run of digits, e.g. 45 for "ahc045".
// ok is false when the ID has no numeric suffix.
func (c ContestID) Number() (n int, ok bool) {
	s := string(c)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ContestLists is the catalog file: which contests exist and how they group.
// Entries are raw identifiers as configured; normalization happens in catalog.Resolve.
type ContestLists struct {
	Normal       []string `json:"normal"`
	Other        []string `json:"other"`
	SkipExtended []string `json:"skip_extended"`
}

// UnmarshalJSON decodes the catalog leniently: a list that is not an array
// is treated as empty and null, blank or non-string entries are dropped.
func (l *ContestLists) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = ContestLists{
		Normal:       stringList(raw["normal"]),
		Other:        stringList(raw["other"]),
		SkipExtended: stringList(raw["skip_extended"]),
	}
	return nil
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s *string
		if err := json.Unmarshal(item, &s); err != nil || s == nil || strings.TrimSpace(*s) == "" {
			continue
		}
		out = append(out, *s)
	}
	return out
}
