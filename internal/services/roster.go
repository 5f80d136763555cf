package services

import (
	"fmt"

	"tombola/internal/models"
)

// DisplayName returns the name shown for a record: the name, followed by the
// disambiguation in parentheses when there is one.
func DisplayName(name, disambiguation string) string {
	if disambiguation == "" {
		return name
	}
	return name + " (" + disambiguation + ")"
}

// groupScope collects the ids of every player nested anywhere below it.
type groupScope struct {
	members []string
}

type rosterBuilder struct {
	roster    *models.Roster
	enclosing map[string][]*groupScope
}

// ParseRoster builds the player model from a record tree. Every player
// excludes itself and every member of each group enclosing it, at any
// depth. Participating players without any contact are reported as
// warnings; they can still be drawn.
func ParseRoster(records []models.PlayerRecord) (*models.Roster, []models.MissingContactWarning, error) {
	b := &rosterBuilder{
		roster:    &models.Roster{Players: make(map[string]*models.Player)},
		enclosing: make(map[string][]*groupScope),
	}
	if err := b.add(records, nil); err != nil {
		return nil, nil, err
	}

	var warnings []models.MissingContactWarning
	for _, id := range b.roster.Order {
		player := b.roster.Players[id]
		player.Exclusions = map[string]struct{}{id: {}}
		for _, g := range b.enclosing[id] {
			for _, member := range g.members {
				player.Exclusions[member] = struct{}{}
			}
		}

		if player.Participate && !player.HasContact() {
			warnings = append(warnings, models.MissingContactWarning{
				PlayerID:    id,
				DisplayName: player.DisplayName,
			})
		}
	}

	return b.roster, warnings, nil
}

func (b *rosterBuilder) add(records []models.PlayerRecord, enclosing []*groupScope) error {
	for _, record := range records {
		if record.IsGroup() {
			// Full slice expression so siblings never share a backing array.
			scopes := append(enclosing[:len(enclosing):len(enclosing)], &groupScope{})
			if err := b.add(record.Group, scopes); err != nil {
				return err
			}
			continue
		}

		player := newPlayer(record)
		if _, exists := b.roster.Players[player.ID]; exists {
			return fmt.Errorf("%w: %q", models.ErrDuplicateIdentifier, player.ID)
		}

		b.roster.Players[player.ID] = player
		b.roster.Order = append(b.roster.Order, player.ID)
		b.enclosing[player.ID] = enclosing
		for _, g := range enclosing {
			g.members = append(g.members, player.ID)
		}
	}
	return nil
}

func newPlayer(record models.PlayerRecord) *models.Player {
	displayName := DisplayName(record.Name, record.Disambiguation)

	id := record.ID
	if id == "" {
		id = displayName
	}
	if record.Name == "" {
		displayName = id
	}

	return &models.Player{
		ID:             id,
		Name:           record.Name,
		Disambiguation: record.Disambiguation,
		DisplayName:    displayName,
		Email:          record.Email,
		Phone:          record.Phone,
		Participate:    record.Participate == nil || *record.Participate,
	}
}
