package evo

import (
	"fmt"
	"math/rand"
)

// Selector chooses parents from a ranked survivor pool for breeding.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredAgent) (*ScoredAgent, error)
}

// EliteSelector picks uniformly from the ranked pool.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredAgent) (*ScoredAgent, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranked pool is empty")
	}
	return &ranked[rng.Intn(len(ranked))], nil
}

// TournamentSelector samples candidates with replacement and picks the
// best fitness among them.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredAgent) (*ScoredAgent, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranked pool is empty")
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}

	best := &ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		candidate := &ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}
