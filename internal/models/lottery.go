package models

import "time"

// Lottery maps a giver id to the id of the player they give to.
type Lottery map[string]string

// Clone returns a copy of the lottery. A nil lottery clones to an empty one.
func (l Lottery) Clone() Lottery {
	c := make(Lottery, len(l))
	for giver, target := range l {
		c[giver] = target
	}
	return c
}

// Targets returns the set of ids already claimed as someone's target.
func (l Lottery) Targets() map[string]struct{} {
	targets := make(map[string]struct{}, len(l))
	for _, target := range l {
		targets[target] = struct{}{}
	}
	return targets
}

// PlayerSummary is a player annotated with the display name of their target,
// as printed by dump.
type PlayerSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Participate bool   `json:"participate"`
	Target      string `json:"target,omitempty"`
}

// DrawRun is a recorded draw in the history database.
type DrawRun struct {
	ID          string    `json:"id"`
	Game        string    `json:"game"`
	Assignments int       `json:"assignments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Assignment is one giver → target pair of a recorded draw.
type Assignment struct {
	RunID  string `db:"run_id" json:"-"`
	Giver  string `db:"giver" json:"giver"`
	Target string `db:"target" json:"target"`
}
