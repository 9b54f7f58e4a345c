package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show the kill sequence and roster of one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID := args[0]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	kills, err := db.LoadKills(matchID)
	if err != nil {
		return fmt.Errorf("load kills: %w", err)
	}
	teams, err := db.LoadTeams(matchID)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	if len(kills) == 0 && len(teams) == 0 {
		fmt.Fprintf(os.Stderr, "No match found with id %q\n", matchID)
		return nil
	}
	cheaters, err := db.LoadCheaters()
	if err != nil {
		return fmt.Errorf("load cheaters: %w", err)
	}

	report.PrintMatch(os.Stdout, matchID, kills, teams, cheaters)
	return nil
}
