package game

import "fmt"

// Settings describes the X01 rule set a game is played under. Immutable once
// a game starts.
type Settings struct {
	Sets          int  `json:"sets"`
	Legs          int  `json:"legs"`
	StartingScore int  `json:"startingScore"`
	DoubleIn      bool `json:"doubleIn"`
	DoubleOut     bool `json:"doubleOut"`
}

var validStartingScores = map[int]bool{301: true, 501: true, 701: true}

func (s Settings) Validate() error {
	if s.Sets <= 0 || s.Legs <= 0 {
		return ErrInvalidSettings
	}
	if !validStartingScores[s.StartingScore] {
		return ErrInvalidSettings
	}
	return nil
}

// Key is the canonical queue bucket identifier. Two players are only ever
// matched when their requested settings produce the same key.
func (s Settings) Key() string {
	return fmt.Sprintf("%dx%dx%d:in=%t:out=%t", s.Sets, s.Legs, s.StartingScore, s.DoubleIn, s.DoubleOut)
}
