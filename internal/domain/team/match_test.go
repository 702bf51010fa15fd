package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	me := &Profile{
		UserEmail:     "me@example.com",
		Skills:        []string{"Go", "Backend"},
		IndustryFocus: []string{"Fintech", "SaaS"},
		Role:          "CTO",
		Location:      "Milano",
	}

	tests := []struct {
		name      string
		candidate *Profile
		score     int
	}{
		{
			name: "perfect complement",
			candidate: &Profile{
				Skills:        []string{"Sales", "Marketing"},
				IndustryFocus: []string{"fintech", "saas"},
				Role:          "CEO",
				Location:      "milano",
			},
			score: 40 + 30 + 20 + 10,
		},
		{
			name: "clone of me",
			candidate: &Profile{
				Skills:        []string{"go", "backend"},
				IndustryFocus: []string{"Fintech", "SaaS"},
				Role:          "cto",
				Location:      "Roma",
			},
			score: 30,
		},
		{
			name: "half complementary, partial industry",
			candidate: &Profile{
				Skills:        []string{"Go", "Design"},
				IndustryFocus: []string{"Fintech", "Health"},
			},
			score: 20 + 10,
		},
		{
			name:      "empty candidate",
			candidate: &Profile{},
			score:     0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.score, Score(me, tc.candidate).Score)
		})
	}
}

func TestRank(t *testing.T) {
	me := &Profile{UserEmail: "me@example.com", Skills: []string{"go"}, Role: "CTO"}
	candidates := []*Profile{
		{UserEmail: "ME@example.com", Name: "Me again", Skills: []string{"sales"}, Role: "CEO"},
		{UserEmail: "b@example.com", Name: "Bruno", Skills: []string{"go"}},
		{UserEmail: "a@example.com", Name: "Anna", Skills: []string{"sales"}, Role: "CEO"},
		{UserEmail: "c@example.com", Name: "Carla", Skills: []string{"design"}, Role: "CEO"},
		nil,
	}

	got := Rank(me, candidates, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Anna", got[0].Profile.Name)
	assert.Equal(t, "Carla", got[1].Profile.Name)
	assert.Equal(t, 60, got[0].Score)
}
