package models

import "errors"

var (
	// ErrDuplicateIdentifier is returned when two players resolve to the same id.
	ErrDuplicateIdentifier = errors.New("duplicate player identifier")
	// ErrNoSuitableCandidate is returned when a giver has no eligible target left.
	ErrNoSuitableCandidate = errors.New("could not find a suitable candidate")
	// ErrUnknownPlayer is returned when a lottery references a player not in the roster.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrMissingContact marks players with neither email nor phone.
	ErrMissingContact = errors.New("missing contact")
	// ErrInvalidRecord is returned for malformed entries in a players file.
	ErrInvalidRecord = errors.New("invalid player record")
	// ErrGameNotFound is returned when a game directory does not exist.
	ErrGameNotFound = errors.New("game not found")
)
