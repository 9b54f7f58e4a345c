package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/model"
	"github.com/pable/go-cheat-contagion/internal/report"
	"github.com/pable/go-cheat-contagion/internal/simulation"
	"github.com/pable/go-cheat-contagion/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the database. The dataset is loaded
once, so repeated simulations with different seeds or trial counts start
immediately. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellSession holds the state shared by REPL commands.
type shellSession struct {
	db  *storage.DB
	ds  *model.Dataset
	out io.Writer
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	s := &shellSession{db: db, ds: ds, out: os.Stdout}

	cGreeting.Println("contagion shell")
	cMuted.Printf("%d cheaters, %d kill events, %d team memberships loaded\n",
		len(ds.Cheaters), len(ds.Kills), len(ds.Teams))
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("contagion")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := s.exec(cmd.Context(), line); done {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one REPL line and reports whether the session should end.
func (s *shellSession) exec(ctx context.Context, line string) bool {
	tokens := strings.Fields(line)
	name, args := tokens[0], tokens[1:]

	switch name {
	case "exit", "quit":
		return true
	case "help":
		shellHelp(s.out)
	case "list":
		s.list()
	case "show":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: show <match-id>")
			return false
		}
		s.show(args[0])
	case "observed":
		s.observed()
	case "simulate":
		cfg, list, err := parseShellSimulate(args)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			cMuted.Fprintln(os.Stderr, "usage: simulate [all|teams|victims|observers] [trials] [seed]")
			return false
		}
		s.simulate(ctx, cfg, list)
	case "reload":
		ds, err := s.db.LoadDataset()
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		s.ds = ds
		cMuted.Fprintf(s.out, "reloaded: %d kill events\n", len(ds.Kills))
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
	}
	return false
}

func shellHelp(w io.Writer) {
	fmt.Fprintln(w)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list imported files and demos"},
		{"show <match-id>", "show a match's kills and roster"},
		{"observed", "statistics on the real data"},
		{"simulate [stat] [trials] [seed]", "permutation baselines (default: all 100 1)"},
		{"reload", "re-read the dataset from the database"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(w, "  ")
		cCmd.Fprintf(w, "%-38s", r.cmd)
		fmt.Fprintln(w, r.desc)
	}
	fmt.Fprintln(w)
}

// parseShellSimulate reads the positional arguments of the simulate command.
func parseShellSimulate(args []string) (simulation.Config, []simulation.Statistic, error) {
	cfg := simulation.Config{Trials: 100, Seed: 1}
	name := "all"
	if len(args) > 0 {
		name = args[0]
	}
	list, err := selectedStatistics(name)
	if err != nil {
		return cfg, nil, err
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return cfg, nil, fmt.Errorf("invalid trials %q", args[1])
		}
		cfg.Trials = n
	}
	if len(args) > 2 {
		seed, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return cfg, nil, fmt.Errorf("invalid seed %q", args[2])
		}
		cfg.Seed = seed
	}
	return cfg, list, nil
}

func (s *shellSession) list() {
	imports, err := s.db.ListImports()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(imports) == 0 {
		cMuted.Fprintln(s.out, "Nothing imported yet.")
		return
	}
	report.PrintImports(s.out, imports)
}

func (s *shellSession) show(matchID string) {
	var kills []model.KillEvent
	for _, k := range s.ds.Kills {
		if k.MatchID == matchID {
			kills = append(kills, k)
		}
	}
	var teams []model.TeamMembership
	for _, m := range s.ds.Teams {
		if m.MatchID == matchID {
			teams = append(teams, m)
		}
	}
	if len(kills) == 0 && len(teams) == 0 {
		fmt.Fprintf(os.Stderr, "no match found with id %q\n", matchID)
		return
	}
	report.PrintMatch(s.out, matchID, kills, teams, s.ds.Cheaters)
}

func (s *shellSession) observed() {
	for _, stat := range simulation.AllStatistics {
		values, err := simulation.Observed(s.ds, stat)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		report.PrintObserved(s.out, stat, values)
	}
}

func (s *shellSession) simulate(ctx context.Context, cfg simulation.Config, list []simulation.Statistic) {
	results, err := simulation.New(s.ds, cfg, log).RunAll(ctx, list)
	for _, res := range results {
		report.PrintSimulation(s.out, res)
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
