package services

import (
	"errors"
	"testing"

	"tombola/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func player(id string) models.PlayerRecord {
	return models.PlayerRecord{ID: id, Name: id, Email: id + "@example.com"}
}

func group(records ...models.PlayerRecord) models.PlayerRecord {
	return models.PlayerRecord{Group: append([]models.PlayerRecord{}, records...)}
}

func TestParseRosterDisplayNameAndID(t *testing.T) {
	roster, _, err := ParseRoster([]models.PlayerRecord{
		{Name: "Alice", Email: "a@example.com"},
		{Name: "Bob", Disambiguation: "cousin", Email: "b@example.com"},
		{ID: "c", Name: "Carol", Email: "c@example.com"},
		{ID: "D"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob (cousin)", "c", "D"}, roster.Order)
	assert.Equal(t, "Bob (cousin)", roster.Players["Bob (cousin)"].DisplayName)
	assert.Equal(t, "Carol", roster.Players["c"].DisplayName)
	assert.Equal(t, "D", roster.Players["D"].DisplayName)
}

func TestParseRosterExclusions(t *testing.T) {
	roster, _, err := ParseRoster([]models.PlayerRecord{
		player("A"),
		group(player("B"), player("C")),
		group(player("D"), group(player("E"), player("F"))),
	})
	require.NoError(t, err)

	excl := func(id string) []string { return roster.Players[id].ExclusionList() }

	assert.Equal(t, []string{"A"}, excl("A"))
	assert.Equal(t, []string{"B", "C"}, excl("B"))
	assert.Equal(t, []string{"B", "C"}, excl("C"))
	assert.Equal(t, []string{"D", "E", "F"}, excl("D"))
	assert.Equal(t, []string{"D", "E", "F"}, excl("E"))
	assert.Equal(t, []string{"D", "E", "F"}, excl("F"))
}

func TestParseRosterSiblingGroupsStaySeparate(t *testing.T) {
	roster, _, err := ParseRoster([]models.PlayerRecord{
		group(
			group(player("A"), player("B")),
			group(player("C"), player("D")),
		),
		player("E"),
	})
	require.NoError(t, err)

	// Every member of the household excludes the whole household.
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, []string{"A", "B", "C", "D"}, roster.Players[id].ExclusionList(), id)
	}
	assert.Equal(t, []string{"E"}, roster.Players["E"].ExclusionList())
}

func TestParseRosterDuplicateIdentifier(t *testing.T) {
	_, _, err := ParseRoster([]models.PlayerRecord{
		player("A"),
		group(player("B"), player("A")),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDuplicateIdentifier))

	// A derived id collides with an explicit one.
	_, _, err = ParseRoster([]models.PlayerRecord{
		{Name: "Bob", Disambiguation: "uncle"},
		{ID: "Bob (uncle)", Name: "Robert"},
	})
	assert.True(t, errors.Is(err, models.ErrDuplicateIdentifier))
}

func TestParseRosterMissingContact(t *testing.T) {
	roster, warnings, err := ParseRoster([]models.PlayerRecord{
		player("A"),
		{ID: "B", Name: "Bob"},
		{ID: "C", Name: "Carol", Phone: "0600000000"},
		{ID: "D", Name: "Dave", Participate: boolPtr(false)},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)

	assert.Equal(t, "B", warnings[0].PlayerID)
	assert.True(t, errors.Is(warnings[0], models.ErrMissingContact))
	assert.Contains(t, roster.Players, "B")
}

func TestParseRosterNonParticipants(t *testing.T) {
	roster, _, err := ParseRoster([]models.PlayerRecord{
		group(player("A"), models.PlayerRecord{ID: "B", Name: "B", Participate: boolPtr(false)}),
		player("C"),
	})
	require.NoError(t, err)

	assert.False(t, roster.Players["B"].Participate)
	assert.True(t, roster.Players["A"].Excludes("B"))

	var ids []string
	for _, p := range roster.Participants() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"A", "C"}, ids)
}

func TestParseRosterNonParticipantStillClaimsItsID(t *testing.T) {
	_, _, err := ParseRoster([]models.PlayerRecord{
		player("A"),
		{ID: "A", Name: "Alice", Participate: boolPtr(false)},
	})
	assert.ErrorIs(t, err, models.ErrDuplicateIdentifier)
}

func TestRosterSortedByDisplayName(t *testing.T) {
	roster, _, err := ParseRoster([]models.PlayerRecord{
		{ID: "1", Name: "zoe"},
		{ID: "2", Name: "Adam"},
		{ID: "3", Name: "bea"},
	})
	require.NoError(t, err)

	var names []string
	for _, p := range roster.SortedByDisplayName() {
		names = append(names, p.DisplayName)
	}
	assert.Equal(t, []string{"Adam", "bea", "zoe"}, names)
}
