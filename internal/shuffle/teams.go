// Package shuffle builds randomized copies of match records for permutation
// trials. Every shuffle stays inside a single match: the set of players and
// the number of records of each match never change, only the team numbers or
// roles attached to them move.
package shuffle

import (
	"math/rand/v2"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// ShuffleTeams returns a copy of teams in which, for every match, the team
// numbers have been permuted uniformly at random across that match's
// players. Record order and player ids are kept, so team sizes per match are
// preserved exactly. The input slice is not modified.
func ShuffleTeams(teams []model.TeamMembership, rng *rand.Rand) []model.TeamMembership {
	out := make([]model.TeamMembership, len(teams))
	copy(out, teams)

	// Record indices per match, matches in first-appearance order so a fixed
	// seed always yields the same draw.
	var order []string
	indices := make(map[string][]int)
	for i, m := range teams {
		if _, seen := indices[m.MatchID]; !seen {
			order = append(order, m.MatchID)
		}
		indices[m.MatchID] = append(indices[m.MatchID], i)
	}

	for _, matchID := range order {
		idx := indices[matchID]
		if len(idx) < 2 {
			continue
		}
		numbers := make([]string, len(idx))
		for j, i := range idx {
			numbers[j] = teams[i].TeamNumber
		}
		rng.Shuffle(len(numbers), func(a, b int) {
			numbers[a], numbers[b] = numbers[b], numbers[a]
		})
		for j, i := range idx {
			out[i].TeamNumber = numbers[j]
		}
	}
	return out
}
