package progress

import "time"

// Rule describes one unlockable achievement: a stable identifier, a display
// name, the points it awards, and the predicate over user stats that unlocks it.
type Rule struct {
	ID           string
	Name         string
	RewardPoints int
	Condition    func(*UserStats) bool
}

// Rules returns the achievement catalogue in evaluation order. The order is
// part of the contract: unlock notifications and reward history depend on it.
func Rules() []Rule {
	return []Rule{
		{
			ID:           "first_message",
			Name:         "First Steps",
			RewardPoints: 50,
			Condition:    func(s *UserStats) bool { return s.TotalMessages >= 1 },
		},
		{
			ID:           "10_messages",
			Name:         "Chatty Learner",
			RewardPoints: 100,
			Condition:    func(s *UserStats) bool { return s.TotalMessages >= 10 },
		},
		{
			ID:           "50_messages",
			Name:         "Conversation Master",
			RewardPoints: 200,
			Condition:    func(s *UserStats) bool { return s.TotalMessages >= 50 },
		},
		{
			ID:           "grammar_5",
			Name:         "Grammar Guru",
			RewardPoints: 75,
			Condition:    func(s *UserStats) bool { return s.GrammarChecks >= 5 },
		},
		{
			ID:           "vocab_10",
			Name:         "Word Collector",
			RewardPoints: 150,
			Condition:    func(s *UserStats) bool { return s.WordsLearned >= 10 },
		},
		{
			ID:           "streak_7",
			Name:         "Week Warrior",
			RewardPoints: 300,
			Condition:    func(s *UserStats) bool { return s.CurrentStreak >= 7 },
		},
		{
			ID:           "level_5",
			Name:         "Level 5 Hero",
			RewardPoints: 500,
			Condition:    func(s *UserStats) bool { return s.Level >= 5 },
		},
	}
}

// RuleByID looks up a rule in the catalogue.
func RuleByID(id string) (Rule, bool) {
	for _, r := range Rules() {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Achievement is an earned achievement as stored per user.
type Achievement struct {
	ID       string
	Name     string
	Points   int
	EarnedAt time.Time
}

// Engine evaluates achievement rules against user stats.
type Engine struct {
	rules []Rule
}

// NewEngine returns an achievement engine over the standard catalogue.
func NewEngine() *Engine {
	return &Engine{rules: Rules()}
}

// NewEngineWithRules returns an engine over a custom rule set, in the given order.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate runs a single pass over the catalogue and returns the rules whose
// conditions hold and that are not yet in earned, plus the total bonus points
// they award. It is a single pass: reward points credited by this evaluation
// do not trigger further unlocks until the user's next action.
func (e *Engine) Evaluate(stats *UserStats, earned map[string]bool) ([]Rule, int) {
	var newly []Rule
	bonus := 0
	for _, r := range e.rules {
		if earned[r.ID] {
			continue
		}
		if r.Condition(stats) {
			newly = append(newly, r)
			bonus += r.RewardPoints
		}
	}
	return newly, bonus
}
