package score

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hivetrace/internal/types"
)

// Weights holds the additive scoring constants. The values mirror the
// heuristics the honeypots shipped with; they are a tuning surface, not a
// derivation, so they live in one overridable table.
type Weights struct {
	FailedAttemptUnit    int `yaml:"failed_attempt_unit"`    // per failed login below the burst threshold
	FailedAttemptCeiling int `yaml:"failed_attempt_ceiling"` // flat term once the burst threshold is hit
	FailedAttemptBurst   int `yaml:"failed_attempt_burst"`   // failures at or above this count as a burst
	ConnectionBonus      int `yaml:"connection_bonus"`       // flat term for rapid connections
	ConnectionBurst      int `yaml:"connection_burst"`       // connections at or above this count as rapid
	HighCommandWeight    int `yaml:"high_command_weight"`
	MediumCommandWeight  int `yaml:"medium_command_weight"`
	MaxScore             int `yaml:"max_score"`
}

// IndicatorRule is one declarative bonus rule: a command containing any of
// the keywords adds Weight once per command for this category.
type IndicatorRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Weight   int      `yaml:"weight"`
}

// RuleTable is the full scoring configuration.
type RuleTable struct {
	Weights    Weights         `yaml:"weights"`
	Indicators []IndicatorRule `yaml:"indicators"`
}

// DefaultRules returns the built-in scoring table.
func DefaultRules() *RuleTable {
	return &RuleTable{
		Weights: Weights{
			FailedAttemptUnit:    5,
			FailedAttemptCeiling: 50,
			FailedAttemptBurst:   5,
			ConnectionBonus:      30,
			ConnectionBurst:      10,
			HighCommandWeight:    20,
			MediumCommandWeight:  5,
			MaxScore:             100,
		},
		Indicators: []IndicatorRule{
			{Category: "privilege_escalation", Weight: 25, Keywords: []string{"sudo", "su"}},
			{Category: "reconnaissance", Weight: 15, Keywords: []string{"ps aux", "netstat", "ifconfig", "whoami", "id", "uname"}},
			{Category: "file_manipulation", Weight: 10, Keywords: []string{"rm", "chmod", "chown", "mv", "cp"}},
			{Category: "network_tools", Weight: 20, Keywords: []string{"wget", "curl", "nc", "netcat", "ssh", "scp"}},
		},
	}
}

// LoadRules reads a scoring table from a YAML file. Missing weights fall
// back to the defaults; an empty indicator list keeps the default rules.
func LoadRules(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rt RuleTable
	if err := yaml.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	def := DefaultRules()
	if rt.Weights.FailedAttemptUnit <= 0 {
		rt.Weights.FailedAttemptUnit = def.Weights.FailedAttemptUnit
	}
	if rt.Weights.FailedAttemptCeiling <= 0 {
		rt.Weights.FailedAttemptCeiling = def.Weights.FailedAttemptCeiling
	}
	if rt.Weights.FailedAttemptBurst <= 0 {
		rt.Weights.FailedAttemptBurst = def.Weights.FailedAttemptBurst
	}
	if rt.Weights.ConnectionBonus <= 0 {
		rt.Weights.ConnectionBonus = def.Weights.ConnectionBonus
	}
	if rt.Weights.ConnectionBurst <= 0 {
		rt.Weights.ConnectionBurst = def.Weights.ConnectionBurst
	}
	if rt.Weights.HighCommandWeight <= 0 {
		rt.Weights.HighCommandWeight = def.Weights.HighCommandWeight
	}
	if rt.Weights.MediumCommandWeight <= 0 {
		rt.Weights.MediumCommandWeight = def.Weights.MediumCommandWeight
	}
	if rt.Weights.MaxScore <= 0 {
		rt.Weights.MaxScore = def.Weights.MaxScore
	}
	if len(rt.Indicators) == 0 {
		rt.Indicators = def.Indicators
	}
	return &rt, nil
}

// Score computes the threat score for an actor and its associated commands.
// Pure and deterministic: identical input always yields the identical score.
func (r *RuleTable) Score(actor *types.ActorRecord, commands []string) types.ThreatScore {
	w := r.Weights
	score := 0

	// Term 1: failed authentication attempts
	if actor.FailedAttempts >= w.FailedAttemptBurst {
		score += w.FailedAttemptCeiling
	} else {
		score += actor.FailedAttempts * w.FailedAttemptUnit
	}

	// Term 2: connection volume
	if actor.ConnectionsOpened >= w.ConnectionBurst {
		score += w.ConnectionBonus
	}

	// Term 3: command mix
	for _, cmd := range commands {
		switch ClassifyCommand(cmd) {
		case types.ThreatHigh:
			score += w.HighCommandWeight
		case types.ThreatMedium:
			score += w.MediumCommandWeight
		}
	}

	// Term 4: indicator bonuses, once per command per category
	for _, cmd := range commands {
		lower := strings.ToLower(cmd)
		for _, ind := range r.Indicators {
			if ind.matches(lower) {
				score += ind.Weight
			}
		}
	}

	if score > w.MaxScore {
		score = w.MaxScore
	}
	if score < 0 {
		score = 0
	}

	return types.ThreatScore{
		Subject: actor.ID,
		Score:   score,
		Level:   LevelFor(score),
	}
}

func (ind IndicatorRule) matches(lowerCommand string) bool {
	for _, kw := range ind.Keywords {
		if strings.Contains(lowerCommand, kw) {
			return true
		}
	}
	return false
}

// LevelFor maps a clamped score to its discrete bucket.
func LevelFor(score int) types.ScoreLevel {
	switch {
	case score >= 80:
		return types.ScoreCritical
	case score >= 60:
		return types.ScoreHigh
	case score >= 40:
		return types.ScoreMedium
	case score >= 20:
		return types.ScoreLow
	default:
		return types.ScoreMinimal
	}
}
