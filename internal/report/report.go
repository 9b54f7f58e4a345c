package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cheat-contagion/internal/model"
	"github.com/pable/go-cheat-contagion/internal/simulation"
	"github.com/pable/go-cheat-contagion/internal/storage"
)

var (
	cOutside = color.New(color.FgRed, color.Bold)
	cInside  = color.New(color.FgGreen)
	cCheater = color.New(color.FgYellow, color.Bold)
	cMuted   = color.New(color.Faint)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintImports prints the imports ledger.
func PrintImports(w io.Writer, imports []storage.Import) {
	table := newTable(w)
	table.Header("HASH", "KIND", "RECORDS", "IMPORTED", "PATH")
	for _, im := range imports {
		hash := im.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		table.Append(hash, im.Kind, strconv.Itoa(im.Records), im.ImportedAt, im.Path)
	}
	table.Render()
}

// PrintObserved prints the statistics computed on the unshuffled dataset.
func PrintObserved(w io.Writer, stat simulation.Statistic, values []int) {
	fmt.Fprintf(w, "\n--- %s ---\n\n", stat.Title())
	table := newTable(w)
	table.Header("STAT", "OBSERVED")
	for i, label := range stat.Labels() {
		if i >= len(values) {
			break
		}
		table.Append(label, strconv.Itoa(values[i]))
	}
	table.Render()
}

// PrintSimulation prints the null baseline of one statistic next to its
// observed values. Observed values outside the interval are highlighted.
func PrintSimulation(w io.Writer, res *simulation.Result) {
	fmt.Fprintf(w, "\n--- %s (%d trials, %s) ---\n\n",
		res.Statistic.Title(), res.Trials, res.Elapsed.Round(time.Millisecond))
	table := newTable(w)
	table.Header("STAT", "MEAN", "95% CI", "OBSERVED")
	for i, est := range res.Estimates {
		obs := "—"
		if i < len(res.Observed) {
			obs = observedCell(res.Observed[i], est.Interval)
		}
		table.Append(est.Label, fmt.Sprintf("%.1f", est.Mean), est.Interval.String(), obs)
	}
	table.Render()
}

func observedCell(v int, iv model.Interval) string {
	s := strconv.Itoa(v)
	if iv.Contains(float64(v)) {
		return cInside.Sprint(s)
	}
	return cOutside.Sprint(s + " *")
}

// PrintMatch prints the kill sequence and roster of one match. Cheater ids
// are highlighted, with a marker when the cheater was active at match start.
func PrintMatch(w io.Writer, matchID string, kills []model.KillEvent, teams []model.TeamMembership, cheaters model.Cheaters) {
	var start string
	if len(kills) > 0 {
		start = kills[0].Time.Format(model.TimestampLayout)
	}
	fmt.Fprintf(w, "\nMatch: %s  |  Kills: %d  |  Players: %d  |  Start: %s\n\n",
		matchID, len(kills), len(teams), start)

	if len(teams) > 0 {
		rt := newTable(w)
		rt.Header("TEAM", "PLAYER", "CHEATING", "BANNED")
		for _, m := range teams {
			cheating, banned := "", ""
			id := m.PlayerID
			if rec, ok := cheaters.Lookup(m.PlayerID); ok {
				cheating = rec.CheatingStart.Format(model.DateLayout)
				banned = rec.BanDate.Format(model.DateLayout)
				id = cCheater.Sprint(id)
			}
			rt.Append(m.TeamNumber, id, cheating, banned)
		}
		rt.Render()
		fmt.Fprintln(w)
	}

	if len(kills) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("No kills recorded for this match."))
		return
	}
	matchStart := kills[0].Time
	kt := newTable(w)
	kt.Header("#", "TIME", "KILLER", "VICTIM")
	for i, k := range kills {
		kt.Append(
			strconv.Itoa(i+1),
			k.Time.Format("15:04:05.000"),
			playerCell(k.KillerID, cheaters, matchStart),
			playerCell(k.KilledID, cheaters, matchStart),
		)
	}
	kt.Render()
}

// playerCell marks cheaters that were already active when the match began,
// matching the rule the interaction statistics use.
func playerCell(id string, cheaters model.Cheaters, matchStart time.Time) string {
	rec, ok := cheaters.Lookup(id)
	if !ok {
		return id
	}
	if rec.CheatingStart.Before(matchStart) {
		return cCheater.Sprint(id + " (active)")
	}
	return cMuted.Sprint(id + " (later)")
}
