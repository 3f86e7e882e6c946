package agent

import (
	"math/rand"
	"strings"
	"testing"

	"pongevo/internal/arena"
	"pongevo/internal/genome"
)

// testGenome builds a fully deterministic controller genome and applies
// the given overrides.
func testGenome(overrides map[string]float64) genome.Genome {
	g := genome.Genome{
		genome.GeneReactionDelay:      0,
		genome.GeneTrackingWeight:     1,
		genome.GenePredictionWeight:   0,
		genome.GeneSweetSpot:          0,
		genome.GeneOffensiveAngling:   0,
		genome.GeneCenterBias:         0.5,
		genome.GeneAggressiveness:     0.5,
		genome.GeneDefensiveThreshold: 0.5,
		genome.GeneErrorRate:          0,
		genome.GeneJitterAmount:       0,
		genome.GeneMovementSmoothing:  0,
	}
	for name, v := range overrides {
		g[name] = v
	}
	return g
}

func testAgent(t *testing.T, overrides map[string]float64) *Agent {
	t.Helper()
	s := genome.DefaultPaddleSchema()
	g := testGenome(overrides)
	if err := s.Validate(g); err != nil {
		t.Fatalf("test genome invalid: %v", err)
	}
	return FromGenome(s, g, 0)
}

func TestNewProducesValidAgent(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	a, err := New(s, 2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	if a.ID == "" || a.Name == "" {
		t.Fatalf("missing identity: id=%q name=%q", a.ID, a.Name)
	}
	if a.Generation != 2 {
		t.Fatalf("generation = %d, want 2", a.Generation)
	}
	if err := s.Validate(a.Genome); err != nil {
		t.Fatalf("agent genome out of bounds: %v", err)
	}
}

func TestNameDerivesFromGenes(t *testing.T) {
	s := genome.DefaultPaddleSchema()
	g := testGenome(nil)

	a := FromGenome(s, genome.Clone(g), 0)
	b := FromGenome(s, genome.Clone(g), 0)

	aBase := strings.Split(a.Name, "-")[0]
	bBase := strings.Split(b.Name, "-")[0]
	if aBase != bBase {
		t.Fatalf("same genes produced different base names: %s vs %s", aBase, bBase)
	}
	if a.ID == b.ID {
		t.Fatal("distinct agents share an id")
	}
}

func TestReactionDelayHoldsPreviousTarget(t *testing.T) {
	a := testAgent(t, map[string]float64{genome.GeneReactionDelay: 3})
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))

	ball := arena.Ball{X: 400, Y: 100, VX: 5, VY: 0}
	paddle := arena.Paddle{X: 770, Y: 300}

	for i := 0; i < 3; i++ {
		got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
		if got != 300 {
			t.Fatalf("call %d: target %v while gated, want held 300", i, got)
		}
	}
	got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
	if got != 100 {
		t.Fatalf("post-gate target %v, want 100", got)
	}
}

func TestPredictionFoldsOffWalls(t *testing.T) {
	a := testAgent(t, map[string]float64{
		genome.GeneTrackingWeight:   0,
		genome.GenePredictionWeight: 1,
	})
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))

	ball := arena.Ball{X: 400, Y: 100, VX: 5, VY: -30}
	paddle := arena.Paddle{X: 770, Y: 300}

	got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
	if got != 280 {
		t.Fatalf("folded prediction = %v, want 280", got)
	}
}

func TestOffensiveAnglingNudgesAwayFromBallDirection(t *testing.T) {
	a := testAgent(t, map[string]float64{genome.GeneOffensiveAngling: 1})
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))

	// Ball close to the paddle and moving down: nudge aims up.
	ball := arena.Ball{X: 600, Y: 300, VX: 5, VY: 2}
	paddle := arena.Paddle{X: 770, Y: 300}

	got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
	want := 300 - 0.3*cfg.PaddleHeight
	if got != want {
		t.Fatalf("angled target = %v, want %v", got, want)
	}
}

func TestDefensiveBlends(t *testing.T) {
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))
	paddle := arena.Paddle{X: 770, Y: 300}

	// Far ball with full center bias parks at field center.
	a := testAgent(t, map[string]float64{genome.GeneCenterBias: 1})
	ball := arena.Ball{X: 300, Y: 80, VX: -5, VY: 0}
	if got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng); got != 300 {
		t.Fatalf("far defensive target = %v, want centered 300", got)
	}

	// Near ball with full aggressiveness follows the ball.
	b := testAgent(t, map[string]float64{genome.GeneAggressiveness: 1})
	ball = arena.Ball{X: 600, Y: 80, VX: -5, VY: 0}
	if got := b.TargetY(cfg, ball, paddle, arena.SideRight, rng); got != 80 {
		t.Fatalf("near defensive target = %v, want ball 80", got)
	}
}

func TestMovementSmoothingRetainsFraction(t *testing.T) {
	a := testAgent(t, map[string]float64{genome.GeneMovementSmoothing: 0.5})
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))

	ball := arena.Ball{X: 400, Y: 100, VX: 5, VY: 0}
	paddle := arena.Paddle{X: 770, Y: 300}

	// Smoothed target primes to the paddle center, then moves halfway.
	got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
	if got != 200 {
		t.Fatalf("smoothed target = %v, want 200", got)
	}
}

func TestTargetStaysInPlayableRange(t *testing.T) {
	a := testAgent(t, map[string]float64{
		genome.GeneErrorRate:    1,
		genome.GeneJitterAmount: 1,
	})
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(8))
	halfH := cfg.PaddleHeight / 2

	for i := 0; i < 500; i++ {
		ball := arena.Ball{X: 400, Y: float64(i % 600), VX: 5, VY: 3}
		paddle := arena.Paddle{X: 770, Y: 300}
		got := a.TargetY(cfg, ball, paddle, arena.SideRight, rng)
		if got < halfH-1e-9 || got > cfg.Height-halfH+1e-9 {
			t.Fatalf("target %v outside playable range", got)
		}
	}
}

func TestCloneIsDeepAndResetsRuntime(t *testing.T) {
	a := testAgent(t, nil)
	a.RecordResult(5, 2, true)
	cfg := arena.DefaultConfig()
	rng := rand.New(rand.NewSource(1))
	a.TargetY(cfg, arena.Ball{X: 400, Y: 100, VX: 5}, arena.Paddle{X: 770, Y: 300}, arena.SideRight, rng)

	c := a.Clone()
	if c.ID != a.ID || c.Name != a.Name {
		t.Fatal("clone lost its identity")
	}
	if c.Stats != a.Stats {
		t.Fatalf("clone stats differ: %+v vs %+v", c.Stats, a.Stats)
	}
	if c.primed {
		t.Fatal("clone kept runtime state")
	}

	c.Genome[genome.GeneTrackingWeight] = 0.123
	if a.Genome[genome.GeneTrackingWeight] == 0.123 {
		t.Fatal("clone shares genome storage with source")
	}
}

// playToFive runs a fresh match between two agents sharing a genome
// until either side reaches 5 points, returning the final scores and
// the frame count.
func playToFive(t *testing.T, seed int64) (left, right, frames int) {
	t.Helper()
	s := genome.DefaultPaddleSchema()
	g := testGenome(map[string]float64{
		genome.GeneReactionDelay: 6,
		genome.GeneErrorRate:     0.5,
	})

	p1 := FromGenome(s, genome.Clone(g), 0)
	p2 := FromGenome(s, genome.Clone(g), 0)
	m, err := arena.NewMatch(arena.DefaultConfig(), p1, p2, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("new match: %v", err)
	}

	for frames < 100000 {
		m.Step()
		frames++
		left, right = m.Scores()
		if left >= 5 || right >= 5 {
			return left, right, frames
		}
	}
	t.Fatal("match did not finish within the frame bound")
	return 0, 0, 0
}

func TestIdenticalGenomesMatchIsSeedReproducible(t *testing.T) {
	l1, r1, f1 := playToFive(t, 33)
	l2, r2, f2 := playToFive(t, 33)
	if l1 != l2 || r1 != r2 || f1 != f2 {
		t.Fatalf("same seed diverged: %d-%d in %d frames vs %d-%d in %d frames",
			l1, r1, f1, l2, r2, f2)
	}
}

func TestRecordResultAndReset(t *testing.T) {
	a := testAgent(t, nil)

	a.RecordResult(5, 3, true)
	a.RecordResult(2, 5, false)

	want := Stats{Wins: 1, Losses: 1, PointsFor: 7, PointsAgainst: 8, MatchesPlayed: 2}
	if a.Stats != want {
		t.Fatalf("stats = %+v, want %+v", a.Stats, want)
	}

	a.ResetStats()
	if a.Stats != (Stats{}) {
		t.Fatalf("stats not cleared: %+v", a.Stats)
	}
}
