package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cheat-contagion/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleKills() []model.KillEvent {
	return []model.KillEvent{
		{MatchID: "M2", KillerID: "B", KilledID: "A", Time: base.Add(90 * time.Second)},
		{MatchID: "M1", KillerID: "A", KilledID: "C", Time: base.Add(1500 * time.Millisecond)},
		{MatchID: "M1", KillerID: "C", KilledID: "A", Time: base.Add(2 * time.Minute)},
	}
}

func sampleTeams() []model.TeamMembership {
	return []model.TeamMembership{
		{MatchID: "M1", PlayerID: "A", TeamNumber: "1"},
		{MatchID: "M1", PlayerID: "C", TeamNumber: "2"},
		{MatchID: "M2", PlayerID: "A", TeamNumber: "1"},
		{MatchID: "M2", PlayerID: "B", TeamNumber: "2"},
	}
}

func TestImportExists(t *testing.T) {
	db := openMemDB(t)

	src := Source{Hash: "abc123", Kind: KindKills, Path: "kills.txt"}
	require.NoError(t, db.ImportKills(src, sampleKills()))

	exists, err := db.ImportExists("abc123")
	require.NoError(t, err)
	assert.True(t, exists, "expected import to exist after insert")

	exists, err = db.ImportExists("nonexistent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKillsRoundTripKeepOrderAndTime(t *testing.T) {
	db := openMemDB(t)
	kills := sampleKills()
	require.NoError(t, db.ImportKills(Source{Hash: "k", Kind: KindKills, Path: "kills.txt"}, kills))

	got, err := db.LoadKills("")
	require.NoError(t, err)
	require.Len(t, got, len(kills))
	for i := range kills {
		assert.Equal(t, kills[i].MatchID, got[i].MatchID)
		assert.Equal(t, kills[i].KillerID, got[i].KillerID)
		assert.True(t, kills[i].Time.Equal(got[i].Time), "kill %d time %v != %v", i, got[i].Time, kills[i].Time)
	}

	m1, err := db.LoadKills("M1")
	require.NoError(t, err)
	assert.Len(t, m1, 2)
}

func TestCheatersRoundTrip(t *testing.T) {
	db := openMemDB(t)
	cheaters := model.Cheaters{
		"A": {CheatingStart: time.Date(2019, 3, 5, 0, 0, 0, 0, time.UTC), BanDate: time.Date(2019, 3, 20, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, db.ImportCheaters(Source{Hash: "c1", Kind: KindCheaters, Path: "cheaters.txt"}, cheaters))

	// A later file replaces the same player.
	cheaters2 := model.Cheaters{
		"A": {CheatingStart: time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC), BanDate: time.Date(2019, 4, 9, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, db.ImportCheaters(Source{Hash: "c2", Kind: KindCheaters, Path: "cheaters2.txt"}, cheaters2))

	got, err := db.LoadCheaters()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheaters2["A"], got["A"])
}

func TestLoadDataset(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.ImportTeams(Source{Hash: "t", Kind: KindTeams, Path: "team_ids.txt"}, sampleTeams()))
	require.NoError(t, db.ImportMatch(Source{Hash: "d", Kind: KindDemo, Path: "m3.dem"},
		[]model.KillEvent{{MatchID: "M3", KillerID: "X", KilledID: "Y", Time: base}},
		[]model.TeamMembership{{MatchID: "M3", PlayerID: "X", TeamNumber: "CT"}}))

	ds, err := db.LoadDataset()
	require.NoError(t, err)
	assert.Empty(t, ds.Cheaters)
	assert.Len(t, ds.Kills, 1)
	require.Len(t, ds.Teams, 5)
	assert.Equal(t, sampleTeams(), ds.Teams[:4])
	assert.Equal(t, "CT", ds.Teams[4].TeamNumber)
}

func TestListImports(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.ImportKills(Source{Hash: "h1", Kind: KindKills, Path: "kills.txt"}, sampleKills()))
	require.NoError(t, db.ImportTeams(Source{Hash: "h2", Kind: KindTeams, Path: "team_ids.txt"}, sampleTeams()))

	list, err := db.ListImports()
	require.NoError(t, err)
	require.Len(t, list, 2)
	records := map[string]int{}
	for _, im := range list {
		records[im.Kind] = im.Records
	}
	assert.Equal(t, 3, records[KindKills])
	assert.Equal(t, 4, records[KindTeams])
}

func TestGetOverview(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.ImportKills(Source{Hash: "h1", Kind: KindKills, Path: "kills.txt"}, sampleKills()))
	require.NoError(t, db.ImportTeams(Source{Hash: "h2", Kind: KindTeams, Path: "team_ids.txt"}, sampleTeams()))

	ov, err := db.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Imports)
	assert.Equal(t, 3, ov.Kills)
	assert.Equal(t, 4, ov.Memberships)
	assert.Equal(t, 2, ov.Matches)
	assert.Equal(t, 4, ov.Teams)
	assert.Equal(t, 3, ov.Players)
	assert.Equal(t, "2019-03-01 12:00:01.500000", ov.FirstKill)
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.ImportTeams(Source{Hash: "h2", Kind: KindTeams, Path: "team_ids.txt"}, sampleTeams()))

	cols, rows, err := db.QueryRaw("SELECT match_id, COUNT(1) AS n FROM teams GROUP BY match_id ORDER BY match_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"match_id", "n"}, cols)
	assert.Equal(t, [][]string{{"M1", "2"}, {"M2", "2"}}, rows)
}

func TestImportRollsBackOnError(t *testing.T) {
	db := openMemDB(t)
	_, err := db.conn.Exec("DROP TABLE kills")
	require.NoError(t, err)

	err = db.ImportKills(Source{Hash: "bad", Kind: KindKills, Path: "kills.txt"}, sampleKills())
	require.Error(t, err)

	exists, err := db.ImportExists("bad")
	require.NoError(t, err)
	assert.False(t, exists, "failed import must not be recorded")
}
