package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported record files and demos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	imports, err := db.ListImports()
	if err != nil {
		return fmt.Errorf("list imports: %w", err)
	}
	if len(imports) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing imported yet. Run 'contagion import --dir <data>' to add records.")
		return nil
	}
	report.PrintImports(os.Stdout, imports)
	return nil
}
