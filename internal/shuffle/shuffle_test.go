package shuffle

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/pable/go-cheat-contagion/internal/model"
)

var t0 = time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
}

// makeTeams builds memberships for one match from team sizes, e.g.
// makeTeams("M1", map[string]int{"1": 4, "2": 4}) yields 8 players.
func makeTeams(matchID string, sizes map[string]int) []model.TeamMembership {
	var numbers []string
	for n := range sizes {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	var out []model.TeamMembership
	for _, n := range numbers {
		for i := 0; i < sizes[n]; i++ {
			out = append(out, model.TeamMembership{
				MatchID:    matchID,
				PlayerID:   matchID + "-p" + n + "-" + string(rune('a'+i)),
				TeamNumber: n,
			})
		}
	}
	return out
}

func teamHistogram(teams []model.TeamMembership) map[model.TeamKey]int {
	h := make(map[model.TeamKey]int)
	for _, m := range teams {
		h[m.Key()]++
	}
	return h
}

func sampleTeams() []model.TeamMembership {
	var teams []model.TeamMembership
	teams = append(teams, makeTeams("M1", map[string]int{"1": 4, "2": 4})...)
	teams = append(teams, makeTeams("M2", map[string]int{"1": 1, "2": 3, "3": 2})...)
	teams = append(teams, makeTeams("M3", map[string]int{"7": 1})...)
	return teams
}

func TestShuffleTeams_PreservesTeamSizes(t *testing.T) {
	teams := sampleTeams()
	want := teamHistogram(teams)

	for seed := uint64(0); seed < 50; seed++ {
		got := ShuffleTeams(teams, newRNG(seed))
		if !reflect.DeepEqual(teamHistogram(got), want) {
			t.Fatalf("seed %d: team size histogram changed: got %v, want %v", seed, teamHistogram(got), want)
		}
		for i := range teams {
			if got[i].MatchID != teams[i].MatchID || got[i].PlayerID != teams[i].PlayerID {
				t.Fatalf("seed %d: record %d moved: got %+v, want player %s in %s",
					seed, i, got[i], teams[i].PlayerID, teams[i].MatchID)
			}
		}
	}
}

func TestShuffleTeams_NoCrossMatchMixing(t *testing.T) {
	teams := append(makeTeams("M1", map[string]int{"1": 3, "2": 3}),
		makeTeams("M2", map[string]int{"3": 3, "4": 3})...)

	for seed := uint64(0); seed < 20; seed++ {
		for _, m := range ShuffleTeams(teams, newRNG(seed)) {
			if m.MatchID == "M1" && m.TeamNumber != "1" && m.TeamNumber != "2" {
				t.Fatalf("seed %d: M1 player got team %s from another match", seed, m.TeamNumber)
			}
			if m.MatchID == "M2" && m.TeamNumber != "3" && m.TeamNumber != "4" {
				t.Fatalf("seed %d: M2 player got team %s from another match", seed, m.TeamNumber)
			}
		}
	}
}

func TestShuffleTeams_SingletonIsNoop(t *testing.T) {
	teams := []model.TeamMembership{{MatchID: "M1", PlayerID: "A", TeamNumber: "1"}}
	got := ShuffleTeams(teams, newRNG(1))
	if !reflect.DeepEqual(got, teams) {
		t.Errorf("singleton match changed: %+v", got)
	}
}

func TestShuffleTeams_DoesNotMutateInput(t *testing.T) {
	teams := sampleTeams()
	before := append([]model.TeamMembership(nil), teams...)
	for seed := uint64(0); seed < 10; seed++ {
		ShuffleTeams(teams, newRNG(seed))
	}
	if !reflect.DeepEqual(teams, before) {
		t.Error("ShuffleTeams modified its input")
	}
}

func TestShuffleTeams_Deterministic(t *testing.T) {
	teams := sampleTeams()
	a := ShuffleTeams(teams, newRNG(42))
	b := ShuffleTeams(teams, newRNG(42))
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different team assignments")
	}
}

func TestShuffleTeams_Permutes(t *testing.T) {
	teams := makeTeams("M1", map[string]int{"1": 4, "2": 4})
	changed := false
	for seed := uint64(0); seed < 20 && !changed; seed++ {
		changed = !reflect.DeepEqual(ShuffleTeams(teams, newRNG(seed)), teams)
	}
	if !changed {
		t.Error("20 seeds never changed a single team assignment")
	}
}

// ---- Role shuffling ----

func kill(match, killer, killed string, sec int) model.KillEvent {
	return model.KillEvent{MatchID: match, KillerID: killer, KilledID: killed, Time: t0.Add(time.Duration(sec) * time.Second)}
}

func sampleKills() []model.KillEvent {
	return []model.KillEvent{
		kill("M1", "A", "B", 1),
		kill("M2", "X", "Y", 2),
		kill("M1", "A", "C", 3),
		kill("M1", "D", "A", 4),
		kill("M2", "Z", "X", 5),
		kill("M1", "C", "C", 6),
		kill("M3", "Q", "R", 7),
	}
}

func participantSets(kills []model.KillEvent) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, k := range kills {
		if out[k.MatchID] == nil {
			out[k.MatchID] = make(map[string]bool)
		}
		out[k.MatchID][k.KillerID] = true
		out[k.MatchID][k.KilledID] = true
	}
	return out
}

func TestParticipants_FirstAppearanceOrder(t *testing.T) {
	order, players := Participants(sampleKills())
	if !reflect.DeepEqual(order, []string{"M1", "M2", "M3"}) {
		t.Errorf("match order = %v", order)
	}
	if !reflect.DeepEqual(players["M1"], []string{"A", "B", "C", "D"}) {
		t.Errorf("M1 participants = %v", players["M1"])
	}
	if !reflect.DeepEqual(players["M2"], []string{"X", "Y", "Z"}) {
		t.Errorf("M2 participants = %v", players["M2"])
	}
}

func TestShuffleRoles_PreservesMatchStructure(t *testing.T) {
	kills := sampleKills()
	wantSets := participantSets(kills)

	for seed := uint64(0); seed < 50; seed++ {
		got, err := ShuffleRoles(kills, newRNG(seed))
		if err != nil {
			t.Fatalf("seed %d: ShuffleRoles: %v", seed, err)
		}
		if len(got) != len(kills) {
			t.Fatalf("seed %d: event count %d, want %d", seed, len(got), len(kills))
		}
		for i := range kills {
			if got[i].MatchID != kills[i].MatchID || !got[i].Time.Equal(kills[i].Time) {
				t.Fatalf("seed %d: event %d moved: %+v", seed, i, got[i])
			}
		}
		if !reflect.DeepEqual(participantSets(got), wantSets) {
			t.Fatalf("seed %d: participant sets changed: %v", seed, participantSets(got))
		}
	}
}

func TestShuffleRoles_ConsistentRelabeling(t *testing.T) {
	kills := sampleKills()
	for seed := uint64(0); seed < 50; seed++ {
		got, err := ShuffleRoles(kills, newRNG(seed))
		if err != nil {
			t.Fatalf("ShuffleRoles: %v", err)
		}
		// Events 0 and 2 share killer A in M1; event 3 has A as victim.
		if got[0].KillerID != got[2].KillerID {
			t.Fatalf("seed %d: shared killer split: %s vs %s", seed, got[0].KillerID, got[2].KillerID)
		}
		if got[0].KillerID != got[3].KilledID {
			t.Fatalf("seed %d: A relabeled inconsistently: %s vs %s", seed, got[0].KillerID, got[3].KilledID)
		}
		// The self-kill stays a self-kill under a bijection.
		if got[5].KillerID != got[5].KilledID {
			t.Fatalf("seed %d: self-kill lost: %+v", seed, got[5])
		}
		// Distinct original ids stay distinct.
		if got[0].KilledID == got[2].KilledID {
			t.Fatalf("seed %d: distinct victims B and C merged into %s", seed, got[0].KilledID)
		}
	}
}

func TestShuffleRoles_DeterministicAndPure(t *testing.T) {
	kills := sampleKills()
	before := append([]model.KillEvent(nil), kills...)

	a, err := ShuffleRoles(kills, newRNG(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ShuffleRoles(kills, newRNG(7))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different relabelings")
	}
	if !reflect.DeepEqual(kills, before) {
		t.Error("ShuffleRoles modified its input")
	}
}

func TestRelabelKills_UnknownMatch(t *testing.T) {
	kills := []model.KillEvent{kill("M9", "A", "B", 1)}
	_, err := RelabelKills(kills, Bijections{"M1": {"A": "B", "B": "A"}})
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Errorf("expected ErrUnknownParticipant, got %v", err)
	}
}

func TestRelabelKills_UnknownPlayer(t *testing.T) {
	kills := []model.KillEvent{kill("M1", "A", "C", 1)}
	_, err := RelabelKills(kills, Bijections{"M1": {"A": "B", "B": "A"}})
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Errorf("expected ErrUnknownParticipant, got %v", err)
	}
}

func TestRelabelKills_AppliesMapping(t *testing.T) {
	kills := []model.KillEvent{kill("M1", "A", "B", 1), kill("M1", "B", "A", 2)}
	got, err := RelabelKills(kills, Bijections{"M1": {"A": "B", "B": "A"}})
	if err != nil {
		t.Fatalf("RelabelKills: %v", err)
	}
	if got[0].KillerID != "B" || got[0].KilledID != "A" || got[1].KillerID != "A" || got[1].KilledID != "B" {
		t.Errorf("unexpected relabeling: %+v", got)
	}
}
