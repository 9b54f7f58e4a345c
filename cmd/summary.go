package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display record counts for everything stored: imports, cheaters, kill
events, team memberships, matches, teams, players and the kill time range.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Imports == 0 {
		fmt.Fprintln(os.Stdout, "Nothing imported yet. Run 'contagion import --dir <data>' to add records.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Imports       : %d\n", ov.Imports)
	fmt.Fprintf(os.Stdout, "  Cheaters      : %d\n", ov.Cheaters)
	fmt.Fprintf(os.Stdout, "  Kill events   : %d\n", ov.Kills)
	fmt.Fprintf(os.Stdout, "  Memberships   : %d\n", ov.Memberships)
	fmt.Fprintf(os.Stdout, "  Matches       : %d\n", ov.Matches)
	fmt.Fprintf(os.Stdout, "  Teams         : %d\n", ov.Teams)
	fmt.Fprintf(os.Stdout, "  Players seen  : %d\n", ov.Players)
	if ov.FirstKill != "" {
		fmt.Fprintf(os.Stdout, "  Kill range    : %s → %s\n", ov.FirstKill, ov.LastKill)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
