package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/loader"
	"github.com/pable/go-cheat-contagion/internal/storage"
)

var (
	importCheaters string
	importTeams    string
	importKills    string
	importDir      string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import cheater, team and kill record files",
	Long: `Load tab-separated record files into the database. Files may be plain,
zstd (.zst) or gzip (.gz) compressed. A file whose content was already
imported is skipped.

  cheaters: player_id  cheating_start  ban_date
  teams:    match_id   player_id       team_number
  kills:    match_id   killer_id       killed_id    timestamp`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importCheaters, "cheaters", "", "cheater records file")
	importCmd.Flags().StringVar(&importTeams, "teams", "", "team membership file")
	importCmd.Flags().StringVar(&importKills, "kills", "", "kill events file")
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory holding cheaters.txt, team_ids.txt and kills.txt")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importDir != "" {
		if importCheaters == "" {
			importCheaters = loader.Find(importDir, loader.CheatersFile)
		}
		if importTeams == "" {
			importTeams = loader.Find(importDir, loader.TeamsFile)
		}
		if importKills == "" {
			importKills = loader.Find(importDir, loader.KillsFile)
		}
	}
	if importCheaters == "" && importTeams == "" && importKills == "" {
		return fmt.Errorf("nothing to import: pass --cheaters, --teams, --kills or --dir")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	jobs := []struct {
		kind string
		path string
		load func(storage.Source) (int, error)
	}{
		{storage.KindCheaters, importCheaters, func(src storage.Source) (int, error) {
			recs, err := loader.LoadFile(src.Path, loader.ReadCheaters)
			if err != nil {
				return 0, err
			}
			return len(recs), db.ImportCheaters(src, recs)
		}},
		{storage.KindTeams, importTeams, func(src storage.Source) (int, error) {
			recs, err := loader.LoadFile(src.Path, loader.ReadTeams)
			if err != nil {
				return 0, err
			}
			return len(recs), db.ImportTeams(src, recs)
		}},
		{storage.KindKills, importKills, func(src storage.Source) (int, error) {
			recs, err := loader.LoadFile(src.Path, loader.ReadKills)
			if err != nil {
				return 0, err
			}
			return len(recs), db.ImportKills(src, recs)
		}},
	}

	for _, job := range jobs {
		if job.path == "" {
			continue
		}
		hash, err := loader.HashFile(job.path)
		if err != nil {
			return fmt.Errorf("read %s: %w", job.kind, err)
		}
		exists, err := db.ImportExists(hash)
		if err != nil {
			return fmt.Errorf("check import: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "%-8s  %s already imported, skipping.\n", job.kind, job.path)
			continue
		}
		n, err := job.load(storage.Source{Hash: hash, Kind: job.kind, Path: job.path})
		if err != nil {
			return fmt.Errorf("import %s: %w", job.kind, err)
		}
		log.WithFields(logrus.Fields{"kind": job.kind, "path": job.path, "records": n}).Debug("imported")
		fmt.Fprintf(os.Stdout, "%-8s  %s: %d records\n", job.kind, job.path, n)
	}
	return nil
}
