// Package game tracks farmer points, levels and achievements.
package game

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// DefaultUser is the user assumed when a request names none.
const DefaultUser = "default_user"

// MaxLevel caps the level a user can reach.
const MaxLevel = 10

var (
	// ErrUnknownAction is returned for actions outside the catalog.
	ErrUnknownAction = errors.New("invalid action")
	// ErrAlreadyEarned is returned for one-off achievements awarded before.
	ErrAlreadyEarned = errors.New("achievement already earned")
)

// Rejection is the response body for a refused award.
type Rejection struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Reject builds the Rejection for an Award error.
func Reject(err error) Rejection {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return Rejection{Message: "Invalid action"}
	case errors.Is(err, ErrAlreadyEarned):
		return Rejection{Message: "Achievement already earned"}
	default:
		return Rejection{Message: err.Error()}
	}
}

// Achievement is a catalog entry.
type Achievement struct {
	Points      int    `json:"points"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Badge is a cosmetic reward unlocked at a points threshold.
type Badge struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Catalog maps action names to achievements.
var Catalog = map[string]Achievement{
	"first_prediction":  {10, "First Prediction", "Made your first yield prediction", "fas fa-chart-line"},
	"climate_warrior":   {25, "Climate Warrior", "Completed climate risk assessment", "fas fa-cloud-sun"},
	"data_master":       {50, "Data Master", "Used all dashboard features", "fas fa-database"},
	"consistent_user":   {100, "Consistent User", "Used the app for 7 consecutive days", "fas fa-calendar-check"},
	"yield_optimizer":   {75, "Yield Optimizer", "Achieved 90%+ prediction accuracy", "fas fa-seedling"},
	"tech_pioneer":      {60, "Tech Pioneer", "Used computer vision crop analysis", "fas fa-eye"},
	"blockchain_farmer": {40, "Blockchain Farmer", "Created crop traceability record", "fas fa-link"},
	"iot_master":        {35, "IoT Master", "Monitored real-time sensor data", "fas fa-satellite"},
}

// Earned achievements are inferred from the points total, not recorded.
// Some are also once-only, which is decided by the same thresholds.
var milestones = []struct {
	action  string
	points  int
	onceOff bool
}{
	{"first_prediction", 10, true},
	{"climate_warrior", 35, true},
	{"data_master", 85, true},
	{"consistent_user", 185, false},
}

var levelTitles = [...]string{
	1:  "Novice Farmer",
	2:  "Growing Farmer",
	3:  "Skilled Farmer",
	4:  "Expert Farmer",
	5:  "Master Farmer",
	6:  "Agricultural Specialist",
	7:  "Farm Innovator",
	8:  "Precision Farmer",
	9:  "Agriculture Guru",
	10: "Farming Legend",
}

var badges = []struct {
	points int
	badge  Badge
}{
	{10, Badge{"First Steps", "fas fa-seedling", "success"}},
	{50, Badge{"Tech Adopter", "fas fa-microchip", "info"}},
	{100, Badge{"Data Driven", "fas fa-chart-bar", "primary"}},
	{200, Badge{"Climate Champion", "fas fa-globe", "warning"}},
	{300, Badge{"Innovation Master", "fas fa-trophy", "danger"}},
}

// Level returns the level for a points total.
func Level(points int) int {
	return min(points/100+1, MaxLevel)
}

// LevelTitle names a level.
func LevelTitle(level int) string {
	if level < 1 || level >= len(levelTitles) {
		return "Farming Enthusiast"
	}
	return levelTitles[level]
}

// Badges returns the badges unlocked by points, lowest first.
func Badges(points int) []Badge {
	out := []Badge{}
	for _, b := range badges {
		if points >= b.points {
			out = append(out, b.badge)
		}
	}
	return out
}

// Progress describes a user's standing.
type Progress struct {
	Points             int           `json:"points"`
	Level              int           `json:"level"`
	NextLevelPoints    int           `json:"next_level_points"`
	AchievementsEarned []Achievement `json:"achievements_earned"`
	TotalAchievements  int           `json:"total_achievements"`
	ProgressPercentage int           `json:"progress_percentage"`
	LevelTitle         string        `json:"level_title"`
	Badges             []Badge       `json:"badges"`
}

// AwardResult describes a successful award.
type AwardResult struct {
	Success       bool        `json:"success"`
	PointsAwarded int         `json:"points_awarded"`
	TotalPoints   int         `json:"total_points"`
	Achievement   Achievement `json:"achievement"`
	LevelUp       bool        `json:"level_up"`
}

// Store holds points per user. Safe for concurrent use.
type Store struct {
	log *zap.Logger
	// observe is told the action and points of every award.
	observe func(action string, points int)

	mu     sync.RWMutex
	points map[string]int
}

// NewStore creates a Store with DefaultUser seeded at seedPoints.
func NewStore(seedPoints int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		log:    logger,
		points: map[string]int{DefaultUser: seedPoints},
	}
}

// OnAward registers fn to be called after every successful award.
func (s *Store) OnAward(fn func(action string, points int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe = fn
}

// Points returns the user's total. Unknown users have 0.
func (s *Store) Points(user string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[user]
}

// Users returns the number of users with a points entry.
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Progress reports the user's level, achievements and badges.
func (s *Store) Progress(user string) Progress {
	points := s.Points(user)
	level := Level(points)

	earned := []Achievement{}
	for _, m := range milestones {
		if points >= m.points {
			earned = append(earned, Catalog[m.action])
		}
	}
	return Progress{
		Points:             points,
		Level:              level,
		NextLevelPoints:    level * 100,
		AchievementsEarned: earned,
		TotalAchievements:  len(Catalog),
		ProgressPercentage: points % 100,
		LevelTitle:         LevelTitle(level),
		Badges:             Badges(points),
	}
}

// Award grants the points for action to user.
func (s *Store) Award(user, action string) (AwardResult, error) {
	a, ok := Catalog[action]
	if !ok {
		return AwardResult{}, ErrUnknownAction
	}

	s.mu.Lock()
	old := s.points[user]
	for _, m := range milestones {
		if m.onceOff && m.action == action && old >= m.points {
			// The user is registered even when the award is refused.
			s.points[user] = old
			s.mu.Unlock()
			return AwardResult{}, ErrAlreadyEarned
		}
	}
	total := old + a.Points
	s.points[user] = total
	observe := s.observe
	s.mu.Unlock()

	s.log.Info("points awarded",
		zap.String("user", user), zap.String("action", action),
		zap.Int("points", a.Points), zap.Int("total", total))
	if observe != nil {
		observe(action, a.Points)
	}
	return AwardResult{
		Success:       true,
		PointsAwarded: a.Points,
		TotalPoints:   total,
		Achievement:   a,
		LevelUp:       total/100 > old/100,
	}, nil
}
