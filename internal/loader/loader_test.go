package loader

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cheatersTSV = "P1\t2019-03-05\t2019-03-20\nP2\t2019-01-01\t2019-02-01\n"

const teamsTSV = "M1\tP1\t1\nM1\tP2\t2\n\nM1\tP3\t1\n"

const killsTSV = "M1\tP2\tP1\t2019-03-01 12:00:03.120000\nM1\tP1\tP3\t2019-03-01 12:01:00.000000\n"

func TestReadCheaters(t *testing.T) {
	got, err := ReadCheaters(strings.NewReader(cheatersTSV))
	require.NoError(t, err)
	require.Len(t, got, 2)

	rec, ok := got.Lookup("P1")
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 3, 5, 0, 0, 0, 0, time.UTC), rec.CheatingStart)
	assert.Equal(t, time.Date(2019, 3, 20, 0, 0, 0, 0, time.UTC), rec.BanDate)

	_, ok = got.Lookup("P3")
	assert.False(t, ok, "P3 is not a cheater")
}

func TestReadTeams_SkipsBlankLines(t *testing.T) {
	got, err := ReadTeams(strings.NewReader(teamsTSV))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "P3", got[2].PlayerID)
	assert.Equal(t, "1", got[2].TeamNumber)
}

func TestReadKills_KeepsOrderAndFraction(t *testing.T) {
	got, err := ReadKills(strings.NewReader(killsTSV))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "P2", got[0].KillerID)
	assert.Equal(t, "P1", got[0].KilledID)
	assert.Equal(t, 120*time.Millisecond, time.Duration(got[0].Time.Nanosecond()))
	assert.True(t, got[0].Time.Before(got[1].Time))
}

func TestReadKills_WithoutFraction(t *testing.T) {
	got, err := ReadKills(strings.NewReader("M1\tA\tB\t2019-03-01 12:00:03\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].Time.Second())
}

func TestMalformedLinesAreFatal(t *testing.T) {
	_, err := ReadCheaters(strings.NewReader("P1\t2019-03-05\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadCheaters(strings.NewReader("P1\t2019-03-05\t2019-03-20\nP2\t05/03/2019\t2019-03-20\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadTeams(strings.NewReader("M1\tP1\n"))
	assert.Error(t, err)

	_, err = ReadKills(strings.NewReader("M1\tA\tB\tyesterday\n"))
	assert.Error(t, err)
}

func writeZstd(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = enc.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}

func TestLoadDir_CompressedInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheatersFile), []byte(cheatersTSV), 0o644))
	writeZstd(t, filepath.Join(dir, TeamsFile+".zst"), teamsTSV)
	writeGzip(t, filepath.Join(dir, KillsFile+".gz"), killsTSV)

	ds, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, ds.Cheaters, 2)
	assert.Len(t, ds.Teams, 3)
	assert.Len(t, ds.Kills, 2)
}

func TestLoadFile_ErrorNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kills.txt")
	require.NoError(t, os.WriteFile(path, []byte("M1\tA\n"), 0o644))

	_, err := LoadFile(path, ReadKills)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadDir_MissingFile(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte(teamsTSV), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(teamsTSV), 0o644))

	ha, err := HashFile(a)
	require.NoError(t, err)
	hb, err := HashFile(b)
	require.NoError(t, err)
	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb, "identical content must hash identically")

	_, err = HashFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
