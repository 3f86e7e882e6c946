package evo

import (
	"math"
	"math/rand"
	"testing"

	"pongevo/internal/agent"
	"pongevo/internal/genome"
)

func testPopulation(t *testing.T, n int, seed int64) []*agent.Agent {
	t.Helper()
	s := genome.DefaultPaddleSchema()
	rng := rand.New(rand.NewSource(seed))
	out := make([]*agent.Agent, 0, n)
	for i := 0; i < n; i++ {
		a, err := agent.New(s, 0, rng)
		if err != nil {
			t.Fatalf("new agent: %v", err)
		}
		out = append(out, a)
	}
	return out
}

func TestFitnessZeroWithoutMatches(t *testing.T) {
	if got := Fitness(agent.Stats{}); got != 0 {
		t.Fatalf("fitness = %v for unplayed agent, want 0", got)
	}
	if got := Fitness(agent.Stats{PointsFor: 50, PointsAgainst: 1}); got != 0 {
		t.Fatalf("fitness = %v with zero matches, want 0", got)
	}
}

func TestFitnessFormula(t *testing.T) {
	// 3 wins in 4 matches, +20 points over 4 matches.
	s := agent.Stats{Wins: 3, Losses: 1, PointsFor: 40, PointsAgainst: 20, MatchesPlayed: 4}
	want := 0.75*1000 + 5.0*10
	if got := Fitness(s); math.Abs(got-want) > 1e-9 {
		t.Fatalf("fitness = %v, want %v", got, want)
	}

	// A losing record with a negative differential scores below a
	// winning one.
	loser := agent.Stats{Wins: 1, Losses: 3, PointsFor: 20, PointsAgainst: 40, MatchesPlayed: 4}
	if Fitness(loser) >= Fitness(s) {
		t.Fatal("losing record outranked winning record")
	}
}

func TestRankSortsDescendingAndStoresFitness(t *testing.T) {
	pop := testPopulation(t, 3, 1)
	pop[0].Stats = agent.Stats{Wins: 1, Losses: 1, MatchesPlayed: 2}
	pop[1].Stats = agent.Stats{Wins: 2, Losses: 0, MatchesPlayed: 2}
	pop[2].Stats = agent.Stats{Wins: 0, Losses: 2, MatchesPlayed: 2}

	ranked := Rank(pop)
	if ranked[0].Agent != pop[1] || ranked[2].Agent != pop[2] {
		t.Fatal("rank order is wrong")
	}
	for _, scored := range ranked {
		if scored.Agent.Stats.Fitness != scored.Fitness {
			t.Fatal("fitness not stored on the stats block")
		}
	}
}

func TestSurvivorsTruncatesToCeilHalf(t *testing.T) {
	for n, want := range map[int]int{2: 1, 5: 3, 8: 4} {
		ranked := Rank(testPopulation(t, n, int64(n)))
		if got := len(Survivors(ranked)); got != want {
			t.Fatalf("n=%d survivors = %d, want %d", n, got, want)
		}
	}
}

func TestEvolvePreservesPopulationSize(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	for _, n := range []int{2, 5, 8, 9} {
		pop := testPopulation(t, n, int64(n))
		rng := rand.New(rand.NewSource(17))
		next, err := Evolve(pop, s, 0.1, rng)
		if err != nil {
			t.Fatalf("evolve n=%d: %v", n, err)
		}
		if len(next) != n {
			t.Fatalf("n=%d produced %d agents", n, len(next))
		}
		for _, a := range next {
			if err := s.Validate(a.Genome); err != nil {
				t.Fatalf("offspring genome out of bounds: %v", err)
			}
			if a.Stats != (agent.Stats{}) {
				t.Fatalf("offspring carries stats: %+v", a.Stats)
			}
		}
	}
}

func TestEvolveKeepsEliteGenomeAndIdentity(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	pop := testPopulation(t, 6, 2)
	best := pop[3]
	best.Stats = agent.Stats{Wins: 5, MatchesPlayed: 5, PointsFor: 50}

	next, err := Evolve(pop, s, 0.5, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}

	elite := next[0]
	if elite.ID != best.ID {
		t.Fatalf("elite id = %s, want %s", elite.ID, best.ID)
	}
	if elite == best {
		t.Fatal("elite is the same object, want a deep copy")
	}
	for _, gene := range s.Genes() {
		if elite.Genome[gene.Name] != best.Genome[gene.Name] {
			t.Fatalf("elite gene %s drifted", gene.Name)
		}
	}
	if elite.Stats != (agent.Stats{}) {
		t.Fatalf("elite kept stats: %+v", elite.Stats)
	}
}

func TestEvolveWithZeroMutationStaysInSurvivorGenePool(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	pop := testPopulation(t, 6, 3)
	for i, a := range pop {
		a.Stats = agent.Stats{Wins: len(pop) - i, MatchesPlayed: len(pop)}
	}

	survivors := Survivors(Rank(pop))
	next, err := Evolve(pop, s, 0, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}

	// With mutation off every offspring gene is a pick or convex blend
	// of two survivor values.
	for _, child := range next[1:] {
		for _, gene := range s.Genes() {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, scored := range survivors {
				v := scored.Agent.Genome[gene.Name]
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			v := child.Genome[gene.Name]
			if v < lo-1e-9 || v > hi+1e-9 {
				t.Fatalf("gene %s = %v outside survivor range [%v, %v]", gene.Name, v, lo, hi)
			}
		}
	}
}

func TestEvolveBumpsGeneration(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	pop := testPopulation(t, 4, 5)
	for _, a := range pop {
		a.Generation = 3
		a.Stats = agent.Stats{Wins: 1, MatchesPlayed: 1}
	}

	next, err := Evolve(pop, s, 0.1, rand.New(rand.NewSource(6)))
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	// Elite and offspring alike advance one generation.
	for _, a := range next {
		if a.Generation != 4 {
			t.Fatalf("generation = %d, want 4", a.Generation)
		}
	}
}

func TestEvolveValidation(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	pop := testPopulation(t, 4, 6)
	rng := rand.New(rand.NewSource(1))

	if _, err := Evolve(pop[:1], s, 0.1, rng); err == nil {
		t.Fatal("expected error for population below 2")
	}
	if _, err := Evolve(pop, nil, 0.1, rng); err == nil {
		t.Fatal("expected error for nil schema")
	}
	if _, err := Evolve(pop, s, 1.5, rng); err == nil {
		t.Fatal("expected error for mutation rate above 1")
	}
	if _, err := Evolve(pop, s, 0.1, nil); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

func TestTournamentSelectorPrefersHigherFitness(t *testing.T) {
	pop := testPopulation(t, 4, 7)
	ranked := []ScoredAgent{
		{Agent: pop[0], Fitness: 1000},
		{Agent: pop[1], Fitness: 500},
		{Agent: pop[2], Fitness: 100},
		{Agent: pop[3], Fitness: 10},
	}

	selector := TournamentSelector{TournamentSize: 3}
	rng := rand.New(rand.NewSource(19))
	picks := make(map[string]int)
	for i := 0; i < 1000; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		picks[parent.Agent.ID]++
	}

	if picks[pop[0].ID] <= picks[pop[3].ID] {
		t.Fatalf("best agent picked %d times, worst %d", picks[pop[0].ID], picks[pop[3].ID])
	}
}

func TestSelectorsRejectEmptyPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := (TournamentSelector{}).PickParent(rng, nil); err == nil {
		t.Fatal("expected error for empty pool")
	}
	if _, err := (EliteSelector{}).PickParent(rng, nil); err == nil {
		t.Fatal("expected error for empty pool")
	}
	if _, err := (TournamentSelector{}).PickParent(nil, []ScoredAgent{{}}); err == nil {
		t.Fatal("expected error for nil rng")
	}
}
