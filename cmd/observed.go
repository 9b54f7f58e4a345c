package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/report"
	"github.com/pable/go-cheat-contagion/internal/simulation"
)

var observedCmd = &cobra.Command{
	Use:   "observed",
	Short: "Compute the interaction statistics on the stored data",
	Args:  cobra.NoArgs,
	RunE:  runObserved,
}

func runObserved(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	for _, stat := range simulation.AllStatistics {
		values, err := simulation.Observed(ds, stat)
		if err != nil {
			return err
		}
		report.PrintObserved(os.Stdout, stat, values)
	}
	return nil
}
