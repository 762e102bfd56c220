package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/ahcview/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResultJSON(t *testing.T) {
	Convey("Given a Result with unknown fields", t, func() {
		rank, perf := 3, 2100
		result := types.Result{Contest: "AHC001", Rank: &rank, Perf: &perf}

		Convey("When encoding", func() {
			data, err := json.Marshal(result)

			Convey("Then unknown numbers are explicit nulls", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual,
					`{"contest":"AHC001","rank":3,"perf":2100,"extended_rank":null,"extended_equiv_rank":null,"extended_equiv_perf":null}`)
			})
		})
	})
}
