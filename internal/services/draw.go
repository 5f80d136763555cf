package services

import (
	"fmt"
	"math/rand/v2"

	"tombola/internal/models"
)

// Draw completes existing into a lottery covering every participating
// player.
//
// Givers are served most constrained first: the one with the largest
// exclusion set, counting the givers already assigned to it. Among equal
// sizes the order is unspecified. Each giver takes the first candidate of a
// shuffled pool that it neither excludes nor is drawn by, so nobody ends up
// giving back to their own giver. With only two participants that rule is
// dropped and the result is the pair drawing each other.
//
// The heuristic never backtracks: when a giver has no eligible candidate
// left, Draw fails with ErrNoSuitableCandidate even though another shuffle
// might have succeeded. Neither roster nor existing is modified.
func Draw(roster *models.Roster, existing models.Lottery, rng *rand.Rand) (models.Lottery, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for giver, target := range existing {
		if _, ok := roster.Get(giver); !ok {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownPlayer, giver)
		}
		if _, ok := roster.Get(target); !ok {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownPlayer, target)
		}
	}

	lottery := existing.Clone()
	claimed := existing.Targets()

	reverse := seedReverse(existing)

	participants := roster.Participants()
	reciprocal := len(participants) > 2

	var todo, pool []*models.Player
	for _, player := range participants {
		if _, done := existing[player.ID]; !done {
			todo = append(todo, player)
		}
		if _, taken := claimed[player.ID]; !taken {
			pool = append(pool, player)
		}
	}

	shuffle(rng, pool)

	for len(todo) > 0 {
		i := mostConstrained(todo, reverse)
		giver := todo[i]
		todo = append(todo[:i], todo[i+1:]...)

		var avoid map[string]struct{}
		if reciprocal {
			avoid = reverse[giver.ID]
		}
		j := pickCandidate(pool, giver, avoid)
		if j < 0 {
			return nil, fmt.Errorf("%w for %s", models.ErrNoSuitableCandidate, giver.DisplayName)
		}
		target := pool[j]
		pool = removeAt(pool, j)

		lottery[giver.ID] = target.ID
		addReverse(reverse, target.ID, giver.ID)
	}

	return lottery, nil
}

// shuffle is a Fisher-Yates shuffle.
func shuffle(rng *rand.Rand, pool []*models.Player) {
	for n := len(pool); n > 1; n-- {
		i := rng.IntN(n)
		pool[n-1], pool[i] = pool[i], pool[n-1]
	}
}

func constraint(player *models.Player, reverse map[string]map[string]struct{}) int {
	size := len(player.Exclusions)
	for giver := range reverse[player.ID] {
		if !player.Excludes(giver) {
			size++
		}
	}
	return size
}

// mostConstrained returns the index of the giver with the largest
// exclusion set, the last one on ties.
func mostConstrained(todo []*models.Player, reverse map[string]map[string]struct{}) int {
	best, bestSize := 0, -1
	for i, player := range todo {
		if size := constraint(player, reverse); size >= bestSize {
			best, bestSize = i, size
		}
	}
	return best
}

// pickCandidate returns the index of the first candidate of pool that giver
// may draw, or -1.
func pickCandidate(pool []*models.Player, giver *models.Player, avoid map[string]struct{}) int {
	for i, candidate := range pool {
		if giver.Excludes(candidate.ID) {
			continue
		}
		if _, back := avoid[candidate.ID]; back {
			continue
		}
		return i
	}
	return -1
}

// removeAt swaps the last element into i and truncates.
func removeAt(pool []*models.Player, i int) []*models.Player {
	last := len(pool) - 1
	pool[i] = pool[last]
	pool[last] = nil
	return pool[:last]
}

// seedReverse maps every target of existing to the givers drawing it.
func seedReverse(existing models.Lottery) map[string]map[string]struct{} {
	reverse := make(map[string]map[string]struct{})
	for giver, target := range existing {
		addReverse(reverse, target, giver)
	}
	return reverse
}

func addReverse(reverse map[string]map[string]struct{}, target, giver string) {
	if reverse[target] == nil {
		reverse[target] = make(map[string]struct{})
	}
	reverse[target][giver] = struct{}{}
}
