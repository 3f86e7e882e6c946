package bracket

import (
	"fmt"
	"math"
	"math/rand"

	"pongevo/internal/agent"
)

// GameScore is one game's final score within a series. Left is slot
// player 1, Right is slot player 2.
type GameScore struct {
	Left  int
	Right int
}

// Slot is one pairing in the bracket. A nil player is either not yet
// determined or a bye. Byes complete immediately with no games and no
// statistics changes.
type Slot struct {
	Round     int
	Index     int
	Player1   *agent.Agent
	Player2   *agent.Agent
	Winner    *agent.Agent
	Games     []GameScore
	Completed bool
}

// Bracket is a single-elimination tournament over a population, with
// byes for odd counts and best-of-N series per pairing. One Bracket is
// owned by exactly one caller; there is no internal locking.
type Bracket struct {
	rounds            [][]*Slot
	matchesPerPairing int
	completed         bool
	champion          *agent.Agent
}

// Build shuffles the population, pairs consecutive agents into round-1
// slots (odd leftover becomes an auto-bye), and pre-allocates the later
// rounds with sizes halving (rounding up) down to the final slot.
func Build(population []*agent.Agent, matchesPerPairing int, rng *rand.Rand) (*Bracket, error) {
	if len(population) < 2 {
		return nil, fmt.Errorf("bracket requires at least 2 agents, got %d", len(population))
	}
	if matchesPerPairing < 1 {
		return nil, fmt.Errorf("matches per pairing must be >= 1, got %d", matchesPerPairing)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	for i, a := range population {
		if a == nil {
			return nil, fmt.Errorf("population has nil agent at index %d", i)
		}
	}

	shuffled := append([]*agent.Agent(nil), population...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	b := &Bracket{matchesPerPairing: matchesPerPairing}

	first := make([]*Slot, 0, (len(shuffled)+1)/2)
	for i := 0; i < len(shuffled); i += 2 {
		slot := &Slot{Round: 0, Index: len(first), Player1: shuffled[i]}
		if i+1 < len(shuffled) {
			slot.Player2 = shuffled[i+1]
		} else {
			// Odd leftover: automatic bye, no games, no stats.
			slot.Winner = slot.Player1
			slot.Completed = true
		}
		first = append(first, slot)
	}
	b.rounds = append(b.rounds, first)

	for size := len(first); size > 1; {
		size = (size + 1) / 2
		round := make([]*Slot, size)
		for i := range round {
			round[i] = &Slot{Round: len(b.rounds), Index: i}
		}
		b.rounds = append(b.rounds, round)
	}
	return b, nil
}

// RoundCount reports the number of rounds, ceil(log2(N)) for N agents.
func (b *Bracket) RoundCount() int {
	return len(b.rounds)
}

// Rounds exposes the slot structure for observers. Callers must not
// mutate slots directly; results go through RecordResult.
func (b *Bracket) Rounds() [][]*Slot {
	return b.rounds
}

// NextMatch runs winner propagation and returns the first slot, in
// round-then-index order, with two ready players. It returns nil once
// the final slot has completed (the tournament is over) or when no slot
// is currently playable.
func (b *Bracket) NextMatch() *Slot {
	if b.completed {
		return nil
	}
	b.propagate()

	for _, round := range b.rounds {
		for _, slot := range round {
			if slot.Completed {
				continue
			}
			if slot.Player1 != nil && slot.Player2 != nil {
				return slot
			}
		}
	}

	final := b.rounds[len(b.rounds)-1][0]
	if final.Completed {
		b.completed = true
		b.champion = final.Winner
	}
	return nil
}

// Completed reports whether the final slot has resolved.
func (b *Bracket) Completed() bool {
	if !b.completed {
		b.propagate()
		final := b.rounds[len(b.rounds)-1][0]
		if final.Completed {
			b.completed = true
			b.champion = final.Winner
		}
	}
	return b.completed
}

// Champion returns the tournament winner once the bracket is complete.
func (b *Bracket) Champion() *agent.Agent {
	if b.Completed() {
		return b.champion
	}
	return nil
}

// RecordResult appends one game's final score to a slot's series. The
// series is decided once either side reaches ceil(matchesPerPairing/2)
// game wins; on that transition, exactly once, both agents' aggregate
// statistics are updated by summing over every recorded game. The
// return value reports whether the series just completed; false means
// the caller should play another game in the same pairing.
func (b *Bracket) RecordResult(slot *Slot, leftScore, rightScore int) (bool, error) {
	if slot == nil {
		return false, fmt.Errorf("slot is required")
	}
	if slot.Completed {
		return false, fmt.Errorf("slot round %d index %d is already completed", slot.Round, slot.Index)
	}
	if slot.Player1 == nil || slot.Player2 == nil {
		return false, fmt.Errorf("slot round %d index %d is not fully populated", slot.Round, slot.Index)
	}
	if leftScore == rightScore {
		return false, fmt.Errorf("game scores cannot tie: %d-%d", leftScore, rightScore)
	}

	slot.Games = append(slot.Games, GameScore{Left: leftScore, Right: rightScore})

	leftWins, rightWins := 0, 0
	for _, g := range slot.Games {
		if g.Left > g.Right {
			leftWins++
		} else {
			rightWins++
		}
	}

	needed := (b.matchesPerPairing + 1) / 2
	if leftWins < needed && rightWins < needed {
		return false, nil
	}

	if leftWins >= needed {
		slot.Winner = slot.Player1
	} else {
		slot.Winner = slot.Player2
	}
	slot.Completed = true

	var forLeft, forRight int
	for _, g := range slot.Games {
		forLeft += g.Left
		forRight += g.Right
	}
	slot.Player1.RecordResult(forLeft, forRight, slot.Winner == slot.Player1)
	slot.Player2.RecordResult(forRight, forLeft, slot.Winner == slot.Player2)
	return true, nil
}

// propagate copies completed winners from round i slots 2j/2j+1 into
// round i+1 slot j, and resolves propagated byes: a slot holding one
// player whose sibling source slot does not exist completes immediately.
func (b *Bracket) propagate() {
	for i := 0; i < len(b.rounds)-1; i++ {
		round := b.rounds[i]
		next := b.rounds[i+1]
		for j, slot := range round {
			if !slot.Completed || slot.Winner == nil {
				continue
			}
			target := next[j/2]
			if j%2 == 0 {
				target.Player1 = slot.Winner
			} else {
				target.Player2 = slot.Winner
			}
		}
		for k, slot := range next {
			if slot.Completed || slot.Player1 == nil || slot.Player2 != nil {
				continue
			}
			if 2*k+1 >= len(round) {
				// No sibling source slot exists: automatic bye.
				slot.Winner = slot.Player1
				slot.Completed = true
			}
		}
	}
}

// RoundsForSize reports ceil(log2(n)), the round count a bracket of n
// agents resolves in.
func RoundsForSize(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
