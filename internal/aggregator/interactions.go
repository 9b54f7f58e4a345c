package aggregator

import (
	"sort"
	"time"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// MatchStartTimes returns, per match, the timestamp of its earliest kill,
// used as a proxy for when the match began.
func MatchStartTimes(kills []model.KillEvent) map[string]time.Time {
	starts := make(map[string]time.Time)
	for _, k := range kills {
		cur, ok := starts[k.MatchID]
		if !ok || k.Time.Before(cur) {
			starts[k.MatchID] = k.Time
		}
	}
	return starts
}

// CountVictimCheaters counts the players who started cheating after being
// killed, in a match that began before their own cheating start, by someone
// who was already cheating when that match began. Kills involving a
// non-cheater on either side do not qualify.
func CountVictimCheaters(kills []model.KillEvent, starts map[string]time.Time, cheaters model.Cheaters) int {
	victims := make(map[string]struct{})
	for _, k := range kills {
		start, ok := starts[k.MatchID]
		if !ok {
			continue
		}
		killed, ok := cheaters.Lookup(k.KilledID)
		if !ok {
			continue
		}
		killer, ok := cheaters.Lookup(k.KillerID)
		if !ok {
			continue
		}
		if start.Before(killed.CheatingStart) && killer.CheatingStart.Before(start) {
			victims[k.KilledID] = struct{}{}
		}
	}
	return len(victims)
}

// VictimCheaters computes match start times from kills and counts victim
// cheaters.
func VictimCheaters(kills []model.KillEvent, cheaters model.Cheaters) int {
	return CountVictimCheaters(kills, MatchStartTimes(kills), cheaters)
}

// ---- Observer cheaters ----

// PreCheatingDeaths returns, for every cheater, the matches they died in
// before starting to cheat, with their time of death. A match the player
// survived is not recorded. With several deaths in one match the latest is
// kept.
func PreCheatingDeaths(kills []model.KillEvent, cheaters model.Cheaters, starts map[string]time.Time) map[string]map[string]time.Time {
	out := make(map[string]map[string]time.Time)
	for _, k := range kills {
		rec, ok := cheaters.Lookup(k.KilledID)
		if !ok {
			continue
		}
		start, ok := starts[k.MatchID]
		if !ok || !start.Before(rec.CheatingStart) {
			continue
		}
		deaths, ok := out[k.KilledID]
		if !ok {
			deaths = make(map[string]time.Time)
			out[k.KilledID] = deaths
		}
		if prev, ok := deaths[k.MatchID]; !ok || k.Time.After(prev) {
			deaths[k.MatchID] = k.Time
		}
	}
	return out
}

// CheaterKillTimes returns, per match, the kill timestamps of every player
// who was already cheating when the match started. Each player's timestamps
// are sorted chronologically.
func CheaterKillTimes(kills []model.KillEvent, cheaters model.Cheaters, starts map[string]time.Time) map[string]map[string][]time.Time {
	out := make(map[string]map[string][]time.Time)
	for _, k := range kills {
		rec, ok := cheaters.Lookup(k.KillerID)
		if !ok {
			continue
		}
		start, ok := starts[k.MatchID]
		if !ok || !rec.CheatingStart.Before(start) {
			continue
		}
		perPlayer, ok := out[k.MatchID]
		if !ok {
			perPlayer = make(map[string][]time.Time)
			out[k.MatchID] = perPlayer
		}
		perPlayer[k.KillerID] = append(perPlayer[k.KillerID], k.Time)
	}
	for _, perPlayer := range out {
		for _, times := range perPlayer {
			sort.SliceStable(times, func(i, j int) bool { return times[i].Before(times[j]) })
		}
	}
	return out
}

// EarliestThirdKills returns, per match, the earliest moment at which any
// single cheating player reached three kills. Matches where no cheater got
// three kills are absent.
func EarliestThirdKills(killTimes map[string]map[string][]time.Time) map[string]time.Time {
	out := make(map[string]time.Time)
	for matchID, perPlayer := range killTimes {
		var (
			earliest time.Time
			found    bool
		)
		for _, times := range perPlayer {
			if len(times) < 3 {
				continue
			}
			if !found || times[2].Before(earliest) {
				earliest, found = times[2], true
			}
		}
		if found {
			out[matchID] = earliest
		}
	}
	return out
}

// CountObserverCheaters counts the players who, in some match played before
// they started cheating, died after a cheater in that match had reached
// three kills.
func CountObserverCheaters(preDeaths map[string]map[string]time.Time, thirdKills map[string]time.Time) int {
	n := 0
	for _, deaths := range preDeaths {
		for matchID, died := range deaths {
			third, ok := thirdKills[matchID]
			if ok && died.After(third) {
				n++
				break
			}
		}
	}
	return n
}

// ObserverCheaters runs the full observer-cheater computation over a kill log.
func ObserverCheaters(kills []model.KillEvent, cheaters model.Cheaters) int {
	starts := MatchStartTimes(kills)
	pre := PreCheatingDeaths(kills, cheaters, starts)
	third := EarliestThirdKills(CheaterKillTimes(kills, cheaters, starts))
	return CountObserverCheaters(pre, third)
}
