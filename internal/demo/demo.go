// Package demo extracts kill events and team memberships from CS2 demo files.
package demo

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// matchIDLen is the number of hex digits of the demo hash used as match id.
const matchIDLen = 16

// Match is the record-shaped content of one demo.
type Match struct {
	Hash    string
	MatchID string
	MapName string
	Kills   []model.KillEvent
	Teams   []model.TeamMembership
}

// Extract parses the demo at path. Kill times are start plus the demo clock
// at the kill. A player keeps the side first observed for them, so the squad
// stays the same team across the halftime swap.
func Extract(path string, start time.Time) (*Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash demo: %w", err)
	}
	hash := fmt.Sprintf("%x", h.Sum(nil))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	p := demoinfocs.NewParser(f)
	defer p.Close()

	m := &Match{Hash: hash, MatchID: MatchID(hash)}
	roster := newRoster(m.MatchID)

	p.RegisterEventHandler(func(e events.RoundStart) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil {
				continue
			}
			roster.observe(pl.SteamID64, pl.Team)
		}
	})

	p.RegisterEventHandler(func(e events.Kill) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		if e.Killer == nil || e.Victim == nil {
			return
		}
		if e.Killer.SteamID64 == 0 || e.Victim.SteamID64 == 0 {
			return // bots
		}
		roster.observe(e.Killer.SteamID64, e.Killer.Team)
		roster.observe(e.Victim.SteamID64, e.Victim.Team)

		m.Kills = append(m.Kills, model.KillEvent{
			MatchID:  m.MatchID,
			KillerID: playerID(e.Killer.SteamID64),
			KilledID: playerID(e.Victim.SteamID64),
			Time:     start.Add(p.CurrentTime()),
		})
	})

	if err := p.ParseToEnd(); err != nil {
		return nil, fmt.Errorf("parse demo: %w", err)
	}

	m.MapName = p.Header().MapName
	m.Teams = roster.memberships
	return m, nil
}

// MatchID derives the match id from a demo content hash.
func MatchID(hash string) string {
	if len(hash) <= matchIDLen {
		return hash
	}
	return hash[:matchIDLen]
}

func playerID(steamID uint64) string {
	return strconv.FormatUint(steamID, 10)
}

// teamNumber maps a side to the team number recorded for it. Players seen
// only as spectators or unassigned are not recorded.
func teamNumber(t common.Team) (string, bool) {
	switch t {
	case common.TeamTerrorists:
		return "T", true
	case common.TeamCounterTerrorists:
		return "CT", true
	default:
		return "", false
	}
}

// roster keeps the first side seen per player, in first-seen order.
type roster struct {
	matchID     string
	seen        map[uint64]bool
	memberships []model.TeamMembership
}

func newRoster(matchID string) *roster {
	return &roster{matchID: matchID, seen: make(map[uint64]bool)}
}

func (r *roster) observe(steamID uint64, side common.Team) {
	if steamID == 0 || r.seen[steamID] {
		return
	}
	team, ok := teamNumber(side)
	if !ok {
		return
	}
	r.seen[steamID] = true
	r.memberships = append(r.memberships, model.TeamMembership{
		MatchID:    r.matchID,
		PlayerID:   playerID(steamID),
		TeamNumber: team,
	})
}
