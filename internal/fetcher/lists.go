package fetcher

import (
	"encoding/json"
	"sort"
	"strings"

	model "github.com/okian/ahcview/internal/domain/model"
)

const ahcPrefix = "ahc"

type contestMeta struct {
	ID json.RawMessage `json:"id"`
}

// ahcIDs picks the AHC contest ids out of the upstream contest index, sorted.
func ahcIDs(index []contestMeta) []string {
	ids := make([]string, 0, len(index))
	for _, c := range index {
		id := model.StringField(c.ID)
		if strings.HasPrefix(id, ahcPrefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Merge appends discovered ids that are in neither list to Normal. It
// reports the ids that were added.
func Merge(lists model.ContestLists, discovered []string) (model.ContestLists, []string) {
	known := make(map[string]struct{}, len(lists.Normal)+len(lists.Other))
	for _, id := range lists.Normal {
		known[id] = struct{}{}
	}
	for _, id := range lists.Other {
		known[id] = struct{}{}
	}

	out := model.ContestLists{
		Normal:       append([]string(nil), lists.Normal...),
		Other:        append([]string(nil), lists.Other...),
		SkipExtended: append([]string(nil), lists.SkipExtended...),
	}
	var added []string
	for _, id := range discovered {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		out.Normal = append(out.Normal, id)
		added = append(added, id)
	}
	return out, added
}

// Canonical returns the form written back to disk: Normal and SkipExtended
// sorted and unique, Other unique in its given order.
func Canonical(lists model.ContestLists) model.ContestLists {
	normal := unique(lists.Normal)
	sort.Strings(normal)
	skip := unique(lists.SkipExtended)
	sort.Strings(skip)
	return model.ContestLists{
		Normal:       normal,
		Other:        unique(lists.Other),
		SkipExtended: skip,
	}
}

// Targets lists the contests to collect: Normal then Other, first occurrence kept.
func Targets(lists model.ContestLists) []string {
	all := make([]string, 0, len(lists.Normal)+len(lists.Other))
	all = append(all, lists.Normal...)
	all = append(all, lists.Other...)
	return unique(all)
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
