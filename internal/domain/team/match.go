package team

import (
	"sort"
	"strings"
)

// Match is a candidate profile scored against the caller's profile.
type Match struct {
	Profile *Profile `json:"profile"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score rates how well candidate complements me on a 0..100 scale:
// complementary skills up to 40, industry overlap up to 30,
// a different role 20 and the same location 10.
func Score(me, candidate *Profile) Match {
	m := Match{Profile: candidate}

	mine := toSet(me.Skills)
	theirs := toSet(candidate.Skills)
	if len(theirs) > 0 {
		complementary := 0
		for s := range theirs {
			if _, ok := mine[s]; !ok {
				complementary++
			}
		}
		pts := complementary * 40 / len(theirs)
		if pts > 0 {
			m.Score += pts
			m.Reasons = append(m.Reasons, "competenze complementari")
		}
	}

	if pts := overlapPoints(toSet(me.IndustryFocus), toSet(candidate.IndustryFocus), 30); pts > 0 {
		m.Score += pts
		m.Reasons = append(m.Reasons, "settori in comune")
	}

	if me.Role != "" && candidate.Role != "" && !strings.EqualFold(me.Role, candidate.Role) {
		m.Score += 20
		m.Reasons = append(m.Reasons, "ruolo diverso")
	}

	if me.Location != "" && strings.EqualFold(strings.TrimSpace(me.Location), strings.TrimSpace(candidate.Location)) {
		m.Score += 10
		m.Reasons = append(m.Reasons, "stessa città")
	}
	return m
}

// Rank scores every candidate except me, sorts by score desc then name,
// and returns at most limit matches.
func Rank(me *Profile, candidates []*Profile, limit int) []Match {
	if limit <= 0 {
		limit = 10
	}
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || strings.EqualFold(c.UserEmail, me.UserEmail) {
			continue
		}
		out = append(out, Score(me, c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Profile.Name < out[j].Profile.Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}

// overlapPoints scales the Jaccard index of a and b to scale points.
func overlapPoints(a, b map[string]struct{}, scale int) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return inter * scale / union
}
