package aggregator

import "github.com/pable/go-cheat-contagion/internal/model"

// TeamBuckets counts teams by how many cheaters they contain. Only one to four
// cheaters are bucketed explicitly; Zero is whatever remains of the total, so
// a team with five or more cheaters would be counted there. The data is
// assumed to use squads of at most four.
type TeamBuckets struct {
	Zero, One, Two, Three, Four int
}

// BucketLabels names the scalars returned by TeamBuckets.Values.
var BucketLabels = []string{"0 cheaters", "1 cheater", "2 cheaters", "3 cheaters", "4 cheaters"}

// Values returns the bucket counts ordered from zero to four cheaters.
func (b TeamBuckets) Values() []int {
	return []int{b.Zero, b.One, b.Two, b.Three, b.Four}
}

// CheatersPerTeam counts the cheaters of every team that has at least one,
// and the total number of distinct teams seen.
func CheatersPerTeam(teams []model.TeamMembership, cheaters model.Cheaters) (map[model.TeamKey]int, int) {
	perTeam := make(map[model.TeamKey]int)
	seen := make(map[model.TeamKey]struct{})
	for _, m := range teams {
		key := m.Key()
		seen[key] = struct{}{}
		if cheaters.IsCheater(m.PlayerID) {
			perTeam[key]++
		}
	}
	return perTeam, len(seen)
}

// BucketTeams buckets per-team cheater counts. Teams without cheaters are
// never stored; their count is derived from the total.
func BucketTeams(perTeam map[model.TeamKey]int, total int) TeamBuckets {
	var b TeamBuckets
	for _, n := range perTeam {
		switch n {
		case 1:
			b.One++
		case 2:
			b.Two++
		case 3:
			b.Three++
		case 4:
			b.Four++
		}
	}
	b.Zero = total - (b.One + b.Two + b.Three + b.Four)
	return b
}

// CountTeamBuckets returns the number of teams with 0 through 4 cheaters.
func CountTeamBuckets(cheaters model.Cheaters, teams []model.TeamMembership) TeamBuckets {
	perTeam, total := CheatersPerTeam(teams, cheaters)
	return BucketTeams(perTeam, total)
}
