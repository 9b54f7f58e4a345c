package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/demo"
	"github.com/pable/go-cheat-contagion/internal/loader"
	"github.com/pable/go-cheat-contagion/internal/storage"
)

var extractStart string

var extractCmd = &cobra.Command{
	Use:   "extract <demo.dem>...",
	Short: "Extract kills and team rosters from CS2 demo files",
	Long: `Parse CS2 demos and store their kill events and team memberships.
The match id is the first 16 hex digits of the demo hash. Demos carry no
wall-clock time, so kill times are --start plus the demo clock.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractStart, "start", "", "match start time (YYYY-MM-DD[ HH:MM:SS]), default now")
}

func runExtract(cmd *cobra.Command, args []string) error {
	start := time.Now().UTC().Truncate(time.Second)
	if extractStart != "" {
		var err error
		start, err = parseStart(extractStart)
		if err != nil {
			return err
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, path := range args {
		hash, err := loader.HashFile(path)
		if err != nil {
			return fmt.Errorf("read demo: %w", err)
		}
		exists, err := db.ImportExists(hash)
		if err != nil {
			return fmt.Errorf("check import: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Demo %s already stored, skipping.\n", demo.MatchID(hash))
			continue
		}

		fmt.Fprintf(os.Stdout, "Parsing %s...\n", path)
		m, err := demo.Extract(path, start)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		src := storage.Source{Hash: m.Hash, Kind: storage.KindDemo, Path: path}
		if err := db.ImportMatch(src, m.Kills, m.Teams); err != nil {
			return fmt.Errorf("store match: %w", err)
		}
		log.WithFields(logrus.Fields{"match": m.MatchID, "map": m.MapName}).Debug("demo stored")
		fmt.Fprintf(os.Stdout, "Match %s  |  Map: %s  |  Kills: %d  |  Players: %d\n",
			m.MatchID, m.MapName, len(m.Kills), len(m.Teams))
	}
	return nil
}

func parseStart(s string) (time.Time, error) {
	if t, err := loader.ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start %q: want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", s)
	}
	return t, nil
}
