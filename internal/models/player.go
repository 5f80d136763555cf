package models

import (
	"sort"
	"strings"
)

// PlayerRecord is one element of a players file. A record is either a
// single player or, when Group is non-nil, a nested group whose members
// must never draw each other.
type PlayerRecord struct {
	ID             string
	Name           string
	Disambiguation string
	Email          string
	Phone          string
	// Participate is nil when the field was omitted, which means true.
	Participate *bool

	Group []PlayerRecord
}

// IsGroup reports whether the record is a nested group.
func (r PlayerRecord) IsGroup() bool {
	return r.Group != nil
}

// Player represents a person taking part in the draw.
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Disambiguation string `json:"disambiguation,omitempty"`
	DisplayName    string `json:"displayName"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Participate    bool   `json:"participate"`

	// Exclusions holds the ids this player must not be assigned to,
	// itself included.
	Exclusions map[string]struct{} `json:"-"`
}

// Excludes reports whether id is in the player's exclusion set.
func (p *Player) Excludes(id string) bool {
	_, ok := p.Exclusions[id]
	return ok
}

// ExclusionList returns the exclusion set as a sorted slice.
func (p *Player) ExclusionList() []string {
	ids := make([]string, 0, len(p.Exclusions))
	for id := range p.Exclusions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasContact reports whether the player can be notified at all.
func (p *Player) HasContact() bool {
	return p.Email != "" || p.Phone != ""
}

// Roster is the immutable result of parsing a players file.
type Roster struct {
	Players map[string]*Player
	// Order lists player ids in input order.
	Order []string
}

// Get returns the player with the given id.
func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.Players[id]
	return p, ok
}

// Participants returns the participating players in input order.
func (r *Roster) Participants() []*Player {
	players := make([]*Player, 0, len(r.Order))
	for _, id := range r.Order {
		if p := r.Players[id]; p.Participate {
			players = append(players, p)
		}
	}
	return players
}

// SortedByDisplayName returns the participating players ordered by
// case-insensitive display name.
func (r *Roster) SortedByDisplayName() []*Player {
	players := r.Participants()
	sort.SliceStable(players, func(i, j int) bool {
		return strings.ToLower(players[i].DisplayName) < strings.ToLower(players[j].DisplayName)
	})
	return players
}

// MissingContactWarning signals a player who can be drawn but never
// notified.
type MissingContactWarning struct {
	PlayerID    string
	DisplayName string
}

func (w MissingContactWarning) Error() string {
	return "player " + w.DisplayName + " has neither email nor phone"
}

func (w MissingContactWarning) Unwrap() error {
	return ErrMissingContact
}
