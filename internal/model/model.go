package model

import (
	"fmt"
	"math"
	"time"
)

// Date and timestamp layouts used by the record streams.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.000000"
)

// ---- Input records ----

// KillEvent is one kill in a match. Events of the same match are ordered
// chronologically by Time.
type KillEvent struct {
	MatchID  string
	KillerID string
	KilledID string
	Time     time.Time
}

// CheaterRecord is the cheating interval of a single player.
type CheaterRecord struct {
	CheatingStart time.Time
	BanDate       time.Time
}

// Cheaters maps player id to cheating interval. A player absent from the
// map is not a cheater.
type Cheaters map[string]CheaterRecord

// Lookup returns the cheating interval of playerID and whether the player
// is a cheater at all.
func (c Cheaters) Lookup(playerID string) (CheaterRecord, bool) {
	rec, ok := c[playerID]
	return rec, ok
}

// IsCheater reports whether playerID has a cheating record.
func (c Cheaters) IsCheater(playerID string) bool {
	_, ok := c[playerID]
	return ok
}

// TeamMembership assigns a player to a team within one match.
type TeamMembership struct {
	MatchID    string
	PlayerID   string
	TeamNumber string
}

// Key returns the match-scoped team identity of the membership.
func (m TeamMembership) Key() TeamKey {
	return TeamKey{MatchID: m.MatchID, TeamNumber: m.TeamNumber}
}

// TeamKey identifies a team. Team numbers are only meaningful within a match.
type TeamKey struct {
	MatchID    string
	TeamNumber string
}

func (k TeamKey) String() string {
	return k.MatchID + " - " + k.TeamNumber
}

// Dataset bundles the three record streams. It is shared read-only across
// simulation trials.
type Dataset struct {
	Cheaters Cheaters
	Kills    []KillEvent
	Teams    []TeamMembership
}

// ---- Aggregated output ----

// Interval is a closed interval [Lower, Upper].
type Interval struct {
	Lower float64
	Upper float64
}

// String formats the interval with one decimal per bound, e.g. "[4.9 : 5.3]".
func (iv Interval) String() string {
	return fmt.Sprintf("[%.1f : %.1f]", iv.Lower, iv.Upper)
}

// Contains reports whether v lies inside the interval bounds as printed.
func (iv Interval) Contains(v float64) bool {
	return v >= round1(iv.Lower) && v <= round1(iv.Upper)
}

// Estimate is the mean and approximate 95% confidence interval of one scalar
// over a set of simulation trials.
type Estimate struct {
	Label    string
	Mean     float64
	Interval Interval
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
