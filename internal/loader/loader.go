// Package loader reads the tab-separated cheater, team and kill record
// files. Any malformed line aborts the read.
package loader

import (
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// Default file names inside a data directory.
const (
	CheatersFile = "cheaters.txt"
	TeamsFile    = "team_ids.txt"
	KillsFile    = "kills.txt"
)

// killTimeLayout accepts an optional fractional second after the seconds field.
const killTimeLayout = "2006-01-02 15:04:05"

// Open opens path for reading, decompressing .zst and .gz files on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackedReader{Reader: dec, closers: []func() error{func() error { dec.Close(); return nil }, f.Close}}, nil
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackedReader{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil
	}
	return f, nil
}

// stackedReader closes a decompressor and the file beneath it.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (r *stackedReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadCheaters parses "player_id<TAB>YYYY-MM-DD<TAB>YYYY-MM-DD" lines. A
// repeated player id keeps its last record.
func ReadCheaters(r io.Reader) (model.Cheaters, error) {
	out := make(model.Cheaters)
	err := eachRecord(r, 3, func(line int, f []string) error {
		start, err := time.Parse(model.DateLayout, f[1])
		if err != nil {
			return fmt.Errorf("line %d: cheating start: %w", line, err)
		}
		ban, err := time.Parse(model.DateLayout, f[2])
		if err != nil {
			return fmt.Errorf("line %d: ban date: %w", line, err)
		}
		out[f[0]] = model.CheaterRecord{CheatingStart: start, BanDate: ban}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTeams parses "match_id<TAB>player_id<TAB>team_number" lines.
func ReadTeams(r io.Reader) ([]model.TeamMembership, error) {
	var out []model.TeamMembership
	err := eachRecord(r, 3, func(_ int, f []string) error {
		out = append(out, model.TeamMembership{MatchID: f[0], PlayerID: f[1], TeamNumber: f[2]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadKills parses "match_id<TAB>killer_id<TAB>killed_id<TAB>timestamp" lines,
// keeping file order.
func ReadKills(r io.Reader) ([]model.KillEvent, error) {
	var out []model.KillEvent
	err := eachRecord(r, 4, func(line int, f []string) error {
		ts, err := ParseTimestamp(f[3])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, model.KillEvent{MatchID: f[0], KillerID: f[1], KilledID: f[2], Time: ts})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseTimestamp parses a kill timestamp such as "2019-03-01 12:00:03.120000".
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(killTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	return ts, nil
}

// eachRecord splits every non-blank line on tabs and requires exactly n fields.
func eachRecord(r io.Reader, n int, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != n {
			return fmt.Errorf("line %d: want %d fields, got %d", line, n, len(fields))
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	return sc.Err()
}

// LoadFile opens path and applies read, prefixing errors with the path.
func LoadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()
	v, err := read(rc)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// LoadDir reads the three record files from dir under their default names,
// also accepting a .zst or .gz suffix.
func LoadDir(dir string) (*model.Dataset, error) {
	cheaters, err := LoadFile(Find(dir, CheatersFile), ReadCheaters)
	if err != nil {
		return nil, err
	}
	teams, err := LoadFile(Find(dir, TeamsFile), ReadTeams)
	if err != nil {
		return nil, err
	}
	kills, err := LoadFile(Find(dir, KillsFile), ReadKills)
	if err != nil {
		return nil, err
	}
	return &model.Dataset{Cheaters: cheaters, Teams: teams, Kills: kills}, nil
}

// Find returns the path of name inside dir, preferring a plain file over a
// compressed one. If none exists the plain path is returned.
func Find(dir, name string) string {
	for _, suffix := range []string{"", ".zst", ".gz"} {
		p := filepath.Join(dir, name+suffix)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, name)
}

// HashFile returns the hex sha256 of the raw file bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
