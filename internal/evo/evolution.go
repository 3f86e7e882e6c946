package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"pongevo/internal/agent"
	"pongevo/internal/genome"
)

// ScoredAgent pairs an agent with its computed fitness.
type ScoredAgent struct {
	Agent   *agent.Agent
	Fitness float64
}

// Fitness scores a statistics block: win rate dominates, average point
// differential breaks ties between equal records. An agent that played
// no matches scores zero.
func Fitness(s agent.Stats) float64 {
	if s.MatchesPlayed == 0 {
		return 0
	}
	winRate := float64(s.Wins) / float64(s.MatchesPlayed)
	avgDiff := float64(s.PointsFor-s.PointsAgainst) / float64(s.MatchesPlayed)
	return winRate*1000 + avgDiff*10
}

// Rank computes and stores fitness for every agent, then returns the
// population sorted by descending fitness. The sort is stable so agents
// with equal fitness keep their input order.
func Rank(population []*agent.Agent) []ScoredAgent {
	ranked := make([]ScoredAgent, len(population))
	for i, a := range population {
		a.Stats.Fitness = Fitness(a.Stats)
		ranked[i] = ScoredAgent{Agent: a, Fitness: a.Stats.Fitness}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// Survivors truncates a ranked population to the top ceil(n/2).
func Survivors(ranked []ScoredAgent) []ScoredAgent {
	return ranked[:(len(ranked)+1)/2]
}

// Evolve produces the next generation from a scored population. The
// best agent survives as a single deep-copied elite with its identity
// intact, its generation advanced and its statistics cleared; every
// remaining seat is filled by crossover of two tournament-selected
// survivors followed by mutation. The returned population has exactly
// the input size and every member carries fresh statistics and runtime
// state.
func Evolve(population []*agent.Agent, s *genome.Schema, mutationRate float64, rng *rand.Rand) ([]*agent.Agent, error) {
	if len(population) < 2 {
		return nil, fmt.Errorf("evolution requires at least 2 agents, got %d", len(population))
	}
	if s == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if mutationRate < 0 || mutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]: %v", mutationRate)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	survivors := Survivors(Rank(population))

	elite := survivors[0].Agent.Clone()
	elite.Generation++
	elite.ResetStats()
	next := make([]*agent.Agent, 0, len(population))
	next = append(next, elite)

	selector := TournamentSelector{TournamentSize: 3}
	for len(next) < len(population) {
		p1, err := selector.PickParent(rng, survivors)
		if err != nil {
			return nil, err
		}
		p2, err := selector.PickParent(rng, survivors)
		if err != nil {
			return nil, err
		}

		g, err := genome.Crossover(p1.Agent.Genome, p2.Agent.Genome, s, rng)
		if err != nil {
			return nil, err
		}
		g, err = genome.Mutate(g, s, mutationRate, rng)
		if err != nil {
			return nil, err
		}

		gen := p1.Agent.Generation
		if p2.Agent.Generation > gen {
			gen = p2.Agent.Generation
		}
		next = append(next, agent.FromGenome(s, g, gen+1))
	}
	return next, nil
}
