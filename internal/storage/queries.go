package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// Record kinds tracked in the imports ledger.
const (
	KindCheaters = "cheaters"
	KindTeams    = "teams"
	KindKills    = "kills"
	KindDemo     = "demo"
)

// Source identifies an imported file by content hash.
type Source struct {
	Hash string
	Kind string
	Path string
}

// Import is one row of the imports ledger.
type Import struct {
	Source
	Records    int
	ImportedAt string
}

// Overview summarizes the stored dataset.
type Overview struct {
	Imports     int
	Cheaters    int
	Kills       int
	Memberships int
	Matches     int
	Teams       int
	Players     int
	FirstKill   string
	LastKill    string
}

// ImportExists returns true if a file with the given content hash was already imported.
func (db *DB) ImportExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM imports WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// withImport runs insert inside a transaction and records src in the ledger.
func (db *DB) withImport(src Source, records int, insert func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insert(tx); err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO imports(hash, kind, path, records, imported_at)
		VALUES (?, ?, ?, ?, ?)`,
		src.Hash, src.Kind, src.Path, records, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return tx.Commit()
}

// ImportCheaters inserts cheater records. A player already stored is replaced.
func (db *DB) ImportCheaters(src Source, cheaters model.Cheaters) error {
	return db.withImport(src, len(cheaters), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO cheaters(player_id, cheating_start, ban_date)
			VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for id, rec := range cheaters {
			_, err := stmt.Exec(id, rec.CheatingStart.Format(model.DateLayout), rec.BanDate.Format(model.DateLayout))
			if err != nil {
				return fmt.Errorf("insert cheater %s: %w", id, err)
			}
		}
		return nil
	})
}

// ImportTeams appends team memberships in slice order.
func (db *DB) ImportTeams(src Source, teams []model.TeamMembership) error {
	return db.withImport(src, len(teams), func(tx *sql.Tx) error {
		return insertTeams(tx, teams)
	})
}

// ImportKills appends kill events in slice order.
func (db *DB) ImportKills(src Source, kills []model.KillEvent) error {
	return db.withImport(src, len(kills), func(tx *sql.Tx) error {
		return insertKills(tx, kills)
	})
}

// ImportMatch stores the kills and team memberships extracted from one demo.
func (db *DB) ImportMatch(src Source, kills []model.KillEvent, teams []model.TeamMembership) error {
	return db.withImport(src, len(kills)+len(teams), func(tx *sql.Tx) error {
		if err := insertKills(tx, kills); err != nil {
			return err
		}
		return insertTeams(tx, teams)
	})
}

func insertTeams(tx *sql.Tx, teams []model.TeamMembership) error {
	stmt, err := tx.Prepare(`INSERT INTO teams(match_id, player_id, team_number) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range teams {
		if _, err := stmt.Exec(m.MatchID, m.PlayerID, m.TeamNumber); err != nil {
			return fmt.Errorf("insert team membership %s/%s: %w", m.MatchID, m.PlayerID, err)
		}
	}
	return nil
}

func insertKills(tx *sql.Tx, kills []model.KillEvent) error {
	stmt, err := tx.Prepare(`INSERT INTO kills(match_id, killer_id, killed_id, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range kills {
		if _, err := stmt.Exec(k.MatchID, k.KillerID, k.KilledID, k.Time.Format(model.TimestampLayout)); err != nil {
			return fmt.Errorf("insert kill in %s: %w", k.MatchID, err)
		}
	}
	return nil
}

// ListImports returns the imports ledger, most recent first.
func (db *DB) ListImports() ([]Import, error) {
	rows, err := db.conn.Query(`
		SELECT hash, kind, path, records, imported_at
		FROM imports ORDER BY imported_at DESC, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var im Import
		if err := rows.Scan(&im.Hash, &im.Kind, &im.Path, &im.Records, &im.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// LoadCheaters returns every stored cheater record.
func (db *DB) LoadCheaters() (model.Cheaters, error) {
	rows, err := db.conn.Query(`SELECT player_id, cheating_start, ban_date FROM cheaters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(model.Cheaters)
	for rows.Next() {
		var id, start, ban string
		if err := rows.Scan(&id, &start, &ban); err != nil {
			return nil, err
		}
		var rec model.CheaterRecord
		if rec.CheatingStart, err = time.Parse(model.DateLayout, start); err != nil {
			return nil, fmt.Errorf("cheater %s: %w", id, err)
		}
		if rec.BanDate, err = time.Parse(model.DateLayout, ban); err != nil {
			return nil, fmt.Errorf("cheater %s: %w", id, err)
		}
		out[id] = rec
	}
	return out, rows.Err()
}

// LoadTeams returns team memberships in import order, optionally restricted
// to one match.
func (db *DB) LoadTeams(matchID string) ([]model.TeamMembership, error) {
	query := `SELECT match_id, player_id, team_number FROM teams`
	var args []any
	if matchID != "" {
		query += ` WHERE match_id = ?`
		args = append(args, matchID)
	}
	rows, err := db.conn.Query(query+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamMembership
	for rows.Next() {
		var m model.TeamMembership
		if err := rows.Scan(&m.MatchID, &m.PlayerID, &m.TeamNumber); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadKills returns kill events in import order, optionally restricted to
// one match.
func (db *DB) LoadKills(matchID string) ([]model.KillEvent, error) {
	query := `SELECT match_id, killer_id, killed_id, ts FROM kills`
	var args []any
	if matchID != "" {
		query += ` WHERE match_id = ?`
		args = append(args, matchID)
	}
	rows, err := db.conn.Query(query+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.KillEvent
	for rows.Next() {
		var k model.KillEvent
		var ts string
		if err := rows.Scan(&k.MatchID, &k.KillerID, &k.KilledID, &ts); err != nil {
			return nil, err
		}
		if k.Time, err = time.Parse(model.TimestampLayout, ts); err != nil {
			return nil, fmt.Errorf("kill in %s: %w", k.MatchID, err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// LoadDataset reads all three record streams.
func (db *DB) LoadDataset() (*model.Dataset, error) {
	cheaters, err := db.LoadCheaters()
	if err != nil {
		return nil, fmt.Errorf("load cheaters: %w", err)
	}
	teams, err := db.LoadTeams("")
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	kills, err := db.LoadKills("")
	if err != nil {
		return nil, fmt.Errorf("load kills: %w", err)
	}
	return &model.Dataset{Cheaters: cheaters, Teams: teams, Kills: kills}, nil
}

// GetOverview returns record counts for the whole store.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	var first, last sql.NullString
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM imports),
			(SELECT COUNT(1) FROM cheaters),
			(SELECT COUNT(1) FROM kills),
			(SELECT COUNT(1) FROM teams),
			(SELECT COUNT(1) FROM (SELECT match_id FROM kills UNION SELECT match_id FROM teams)),
			(SELECT COUNT(1) FROM (SELECT DISTINCT match_id, team_number FROM teams)),
			(SELECT COUNT(1) FROM (
				SELECT killer_id AS p FROM kills UNION
				SELECT killed_id FROM kills UNION
				SELECT player_id FROM teams)),
			(SELECT MIN(ts) FROM kills),
			(SELECT MAX(ts) FROM kills)`).
		Scan(&ov.Imports, &ov.Cheaters, &ov.Kills, &ov.Memberships,
			&ov.Matches, &ov.Teams, &ov.Players, &first, &last)
	if err != nil {
		return ov, err
	}
	ov.FirstKill, ov.LastKill = first.String, last.String
	return ov, nil
}

// QueryRaw runs an arbitrary query and returns column names and rows as strings.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
