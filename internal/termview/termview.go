// Package termview renders lookup results for a terminal.
package termview

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/ahcview/internal/domain/types"
)

const missing = "-"

// Tier is an AtCoder rating colour band.
type Tier struct {
	Name  string
	Below int
	Color lipgloss.Color
}

// Tiers are ordered by upper bound; a performance at or above the last bound is red.
var Tiers = []Tier{
	{"gray", 400, "#808080"},
	{"brown", 800, "#804000"},
	{"green", 1200, "#008000"},
	{"cyan", 1600, "#00C0C0"},
	{"blue", 2000, "#0000FF"},
	{"yellow", 2400, "#C0C000"},
	{"orange", 2800, "#FF8000"},
}

var red = Tier{Name: "red", Color: "#FF0000"}

// TierOf returns the colour band of a performance value.
func TierOf(perf int) Tier {
	for _, t := range Tiers {
		if perf < t.Below {
			return t
		}
	}
	return red
}

var headers = []string{"Contest", "Rank", "Perf", "Ext. rank", "Equiv. rank", "Equiv. perf"}

// Render writes a table of results for user to w.
func Render(w io.Writer, user string, results []types.Result) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	cell := r.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Contest,
			plain(res.Rank),
			perf(r, res.Perf),
			plain(res.ExtendedRank),
			plain(res.ExtendedEquivRank),
			perf(r, res.ExtendedEquivPerf),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(cellStyle(cell))

	if _, err := fmt.Fprintln(w, title.Render("AHC results for "+user)); err != nil {
		return err
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no contests")
		return err
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// cellStyle bolds the header row, which lipgloss reports as row 0.
func cellStyle(base lipgloss.Style) table.StyleFunc {
	return func(row, _ int) lipgloss.Style {
		if row == 0 {
			return base.Bold(true)
		}
		return base
	}
}

func plain(v *int) string {
	if v == nil {
		return missing
	}
	return strconv.Itoa(*v)
}

func perf(r *lipgloss.Renderer, v *int) string {
	if v == nil {
		return missing
	}
	return r.NewStyle().Foreground(TierOf(*v).Color).Render(strconv.Itoa(*v))
}
