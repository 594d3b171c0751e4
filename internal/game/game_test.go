package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct{ points, want int }{
		{0, 1}, {99, 1}, {100, 2}, {250, 3}, {899, 9}, {900, 10}, {5000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.points), "points %d", tt.points)
	}
}

func TestLevelTitle(t *testing.T) {
	assert.Equal(t, "Novice Farmer", LevelTitle(1))
	assert.Equal(t, "Farming Legend", LevelTitle(10))
	assert.Equal(t, "Farming Enthusiast", LevelTitle(0))
	assert.Equal(t, "Farming Enthusiast", LevelTitle(11))
}

func TestBadges(t *testing.T) {
	assert.Empty(t, Badges(9))
	assert.NotNil(t, Badges(0))
	got := Badges(200)
	require.Len(t, got, 4)
	assert.Equal(t, "First Steps", got[0].Name)
	assert.Equal(t, "Climate Champion", got[3].Name)
	assert.Len(t, Badges(300), 5)
}

func TestProgressDefaultUser(t *testing.T) {
	s := NewStore(250, nil)
	p := s.Progress(DefaultUser)

	assert.Equal(t, 250, p.Points)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 300, p.NextLevelPoints)
	assert.Equal(t, 50, p.ProgressPercentage)
	assert.Equal(t, "Skilled Farmer", p.LevelTitle)
	assert.Equal(t, 8, p.TotalAchievements)
	require.Len(t, p.AchievementsEarned, 4)
	assert.Equal(t, "First Prediction", p.AchievementsEarned[0].Title)
	assert.Equal(t, "Consistent User", p.AchievementsEarned[3].Title)
	assert.Len(t, p.Badges, 4)
}

func TestProgressUnknownUser(t *testing.T) {
	p := NewStore(250, nil).Progress("nobody")
	assert.Zero(t, p.Points)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 100, p.NextLevelPoints)
	assert.Empty(t, p.AchievementsEarned)
	assert.NotNil(t, p.AchievementsEarned)
}

func TestAward(t *testing.T) {
	s := NewStore(250, nil)
	var observed []string
	s.OnAward(func(action string, points int) { observed = append(observed, action) })

	r, err := s.Award("asha", "first_prediction")
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, 10, r.PointsAwarded)
	assert.Equal(t, 10, r.TotalPoints)
	assert.Equal(t, "First Prediction", r.Achievement.Title)
	assert.False(t, r.LevelUp)

	_, err = s.Award("asha", "first_prediction")
	assert.ErrorIs(t, err, ErrAlreadyEarned)

	r, err = s.Award("asha", "consistent_user")
	require.NoError(t, err)
	assert.Equal(t, 110, r.TotalPoints)
	assert.True(t, r.LevelUp)

	// consistent_user is not once-only
	_, err = s.Award("asha", "consistent_user")
	require.NoError(t, err)
	assert.Equal(t, 210, s.Points("asha"))
	assert.Equal(t, []string{"first_prediction", "consistent_user", "consistent_user"}, observed)
}

func TestAwardOnceOnlyThresholds(t *testing.T) {
	tests := []struct {
		action string
		seed   int
		ok     bool
	}{
		{"climate_warrior", 34, true},
		{"climate_warrior", 35, false},
		{"data_master", 84, true},
		{"data_master", 85, false},
		{"tech_pioneer", 1000, true},
	}
	for _, tt := range tests {
		s := NewStore(tt.seed, nil)
		_, err := s.Award(DefaultUser, tt.action)
		if tt.ok {
			assert.NoError(t, err, "%s at %d", tt.action, tt.seed)
		} else {
			assert.ErrorIs(t, err, ErrAlreadyEarned, "%s at %d", tt.action, tt.seed)
			assert.Equal(t, tt.seed, s.Points(DefaultUser))
		}
	}
}

func TestAwardUnknownAction(t *testing.T) {
	s := NewStore(0, nil)
	_, err := s.Award("asha", "cheat")
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, 1, s.Users(), "unknown actions do not register users")
}

func TestReject(t *testing.T) {
	assert.Equal(t, Rejection{Message: "Invalid action"}, Reject(ErrUnknownAction))
	assert.Equal(t, Rejection{Message: "Achievement already earned"}, Reject(ErrAlreadyEarned))
	assert.Equal(t, "boom", Reject(errors.New("boom")).Message)
}

func TestConcurrentAwards(t *testing.T) {
	s := NewStore(0, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Award("crowd", "iot_master")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50*35, s.Points("crowd"))
}
