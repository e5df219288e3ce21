// Package progress implements idempotent XP awarding and the level ladder.
package progress

import "sort"

// DefaultAward is the XP granted for completing one challenge.
const DefaultAward = 20

type tier struct {
	minXP int
	name  string
}

// Levels in ascending order. A boundary value belongs to the higher tier.
var tiers = []tier{
	{0, "Estagiário SQL"},
	{60, "Analista Júnior SQL"},
	{120, "Analista Pleno SQL"},
	{180, "Especialista SQL em Marketing"},
	{220, "Consultor SQL Marketing Jedi"},
}

// Level maps total XP to the tier name.
func Level(xp int) string {
	return tiers[LevelIndex(xp)].name
}

// LevelIndex maps total XP to a zero-based tier index. Monotone in xp.
func LevelIndex(xp int) int {
	idx := 0
	for i, t := range tiers {
		if xp >= t.minXP {
			idx = i
		}
	}
	return idx
}

// Tracker holds one learner's XP and completed challenge set.
type Tracker struct {
	xp        int
	completed map[int]int // challenge id -> awarded amount
	total     int
}

// NewTracker creates an empty tracker for a course with total challenges.
func NewTracker(total int) *Tracker {
	return &Tracker{completed: make(map[int]int), total: total}
}

// Award grants amount XP for a challenge. Re-awarding an already completed
// challenge is a no-op; returns whether XP was actually granted.
func (t *Tracker) Award(challengeID, amount int) bool {
	if _, done := t.completed[challengeID]; done {
		return false
	}
	t.completed[challengeID] = amount
	t.xp += amount
	return true
}

func (t *Tracker) XP() int {
	return t.xp
}

func (t *Tracker) Level() string {
	return Level(t.xp)
}

// Completed returns the completed challenge ids in ascending order.
func (t *Tracker) Completed() []int {
	ids := make([]int, 0, len(t.completed))
	for id := range t.completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (t *Tracker) IsCompleted(challengeID int) bool {
	_, done := t.completed[challengeID]
	return done
}

func (t *Tracker) TotalChallenges() int {
	return t.total
}
