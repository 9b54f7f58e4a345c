package shuffle

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// ErrUnknownParticipant is returned when a kill references a match or player
// that has no entry in the per-match relabeling. It means the events and the
// participant sets were built from different data.
var ErrUnknownParticipant = errors.New("shuffle: unknown participant")

// Bijections maps match id to a relabeling of that match's participants.
type Bijections map[string]map[string]string

// Participants returns, per match, the distinct players appearing as killer
// or killed, in first-appearance order. The match ids are returned in
// first-appearance order too.
func Participants(kills []model.KillEvent) ([]string, map[string][]string) {
	var order []string
	players := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, k := range kills {
		set, ok := seen[k.MatchID]
		if !ok {
			set = make(map[string]struct{})
			seen[k.MatchID] = set
			order = append(order, k.MatchID)
		}
		for _, id := range [2]string{k.KillerID, k.KilledID} {
			if _, dup := set[id]; dup {
				continue
			}
			set[id] = struct{}{}
			players[k.MatchID] = append(players[k.MatchID], id)
		}
	}
	return order, players
}

// RandomBijections draws one uniform permutation of each match's participant
// set onto itself.
func RandomBijections(order []string, players map[string][]string, rng *rand.Rand) Bijections {
	out := make(Bijections, len(order))
	for _, matchID := range order {
		ids := players[matchID]
		perm := rng.Perm(len(ids))
		mapping := make(map[string]string, len(ids))
		for i, id := range ids {
			mapping[id] = ids[perm[i]]
		}
		out[matchID] = mapping
	}
	return out
}

// RelabelKills returns a copy of kills with killer and killed ids replaced by
// their image under the match's bijection. Timestamps, match ids and event
// order are untouched. A missing match or player mapping is an error.
func RelabelKills(kills []model.KillEvent, bij Bijections) ([]model.KillEvent, error) {
	out := make([]model.KillEvent, len(kills))
	for i, k := range kills {
		mapping, ok := bij[k.MatchID]
		if !ok {
			return nil, fmt.Errorf("%w: match %s has no relabeling", ErrUnknownParticipant, k.MatchID)
		}
		killer, ok := mapping[k.KillerID]
		if !ok {
			return nil, fmt.Errorf("%w: killer %s in match %s", ErrUnknownParticipant, k.KillerID, k.MatchID)
		}
		killed, ok := mapping[k.KilledID]
		if !ok {
			return nil, fmt.Errorf("%w: killed %s in match %s", ErrUnknownParticipant, k.KilledID, k.MatchID)
		}
		out[i] = model.KillEvent{MatchID: k.MatchID, KillerID: killer, KilledID: killed, Time: k.Time}
	}
	return out, nil
}

// ShuffleRoles permutes player identities within every match: one random
// bijection per match is applied consistently to all of its kills, so events
// that shared a killer before still share one afterwards. Self-kills stay
// self-kills and distinct ids stay distinct.
func ShuffleRoles(kills []model.KillEvent, rng *rand.Rand) ([]model.KillEvent, error) {
	order, players := Participants(kills)
	return RelabelKills(kills, RandomBijections(order, players, rng))
}
