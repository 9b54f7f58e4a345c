package demo

import (
	"testing"
	"time"

	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"

	"github.com/pable/go-cheat-contagion/internal/model"
)

func TestMatchID(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef"
	if got := MatchID(hash); got != "0123456789abcdef" {
		t.Errorf("MatchID = %q, want 16-char prefix", got)
	}
	if got := MatchID("abc"); got != "abc" {
		t.Errorf("MatchID(short) = %q, want unchanged", got)
	}
}

func TestTeamNumber(t *testing.T) {
	cases := []struct {
		side common.Team
		want string
		ok   bool
	}{
		{common.TeamTerrorists, "T", true},
		{common.TeamCounterTerrorists, "CT", true},
		{common.TeamSpectators, "", false},
		{common.TeamUnassigned, "", false},
	}
	for _, c := range cases {
		got, ok := teamNumber(c.side)
		if got != c.want || ok != c.ok {
			t.Errorf("teamNumber(%v) = (%q, %v), want (%q, %v)", c.side, got, ok, c.want, c.ok)
		}
	}
}

func TestRosterKeepsFirstSide(t *testing.T) {
	r := newRoster("m1")
	r.observe(76561198000000001, common.TeamTerrorists)
	r.observe(76561198000000002, common.TeamSpectators)
	r.observe(76561198000000002, common.TeamCounterTerrorists)
	// Halftime swap must not move a player to the other squad.
	r.observe(76561198000000001, common.TeamCounterTerrorists)
	r.observe(0, common.TeamTerrorists)

	want := []model.TeamMembership{
		{MatchID: "m1", PlayerID: "76561198000000001", TeamNumber: "T"},
		{MatchID: "m1", PlayerID: "76561198000000002", TeamNumber: "CT"},
	}
	if len(r.memberships) != len(want) {
		t.Fatalf("got %d memberships, want %d: %+v", len(r.memberships), len(want), r.memberships)
	}
	for i := range want {
		if r.memberships[i] != want[i] {
			t.Errorf("membership %d = %+v, want %+v", i, r.memberships[i], want[i])
		}
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := Extract("does-not-exist.dem", time.Time{}); err == nil {
		t.Fatal("expected error for missing demo")
	}
}
