package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"pongevo/internal/arena"
	"pongevo/internal/genome"
)

// Stats is the per-tournament statistics block. It is mutated only by
// series completion and ResetStats.
type Stats struct {
	Wins          int
	Losses        int
	PointsFor     int
	PointsAgainst int
	MatchesPlayed int
	Fitness       float64
}

// Agent wraps a genome with identity, lineage and match statistics, and
// implements the paddle decision function. The runtime fields are
// transient per-series state and are reset between tournaments.
type Agent struct {
	ID         string
	Name       string
	Generation int
	Genome     genome.Genome
	Stats      Stats

	reactionCounter int
	lastTarget      float64
	smoothedTarget  float64
	primed          bool
}

// Ball must be within this fraction of the field width before the
// offensive-angling nudge applies.
const offensiveNearFraction = 0.25

// New creates a random agent for the given schema.
func New(s *genome.Schema, generation int, rng *rand.Rand) (*Agent, error) {
	g, err := genome.NewRandom(s, rng)
	if err != nil {
		return nil, err
	}
	return FromGenome(s, g, generation), nil
}

// FromGenome wraps an existing genome with a fresh identity.
func FromGenome(s *genome.Schema, g genome.Genome, generation int) *Agent {
	id := shortID()
	return &Agent{
		ID:         id,
		Name:       generateName(s, g, id),
		Generation: generation,
		Genome:     g,
	}
}

// Clone deep-copies the agent. The clone shares no genome storage with
// its source.
func (a *Agent) Clone() *Agent {
	clone := *a
	clone.Genome = genome.Clone(a.Genome)
	clone.ResetRuntimeState()
	return &clone
}

// RecordResult folds a completed series into the statistics block.
func (a *Agent) RecordResult(pointsFor, pointsAgainst int, won bool) {
	a.Stats.MatchesPlayed++
	a.Stats.PointsFor += pointsFor
	a.Stats.PointsAgainst += pointsAgainst
	if won {
		a.Stats.Wins++
	} else {
		a.Stats.Losses++
	}
}

// ResetStats zeroes the per-tournament statistics.
func (a *Agent) ResetStats() {
	a.Stats = Stats{}
}

// ResetRuntimeState clears the per-series decision state (reaction
// counter, smoothed target). Call between series.
func (a *Agent) ResetRuntimeState() {
	a.reactionCounter = 0
	a.lastTarget = 0
	a.smoothedTarget = 0
	a.primed = false
}

// TargetY produces the target paddle center for the current frame.
//
// While the reaction counter has not reached the reactionDelay gene the
// previously computed target is returned unchanged. Once reacting, the
// target blends direct tracking with a bounce-folded linear intercept
// prediction when the ball approaches, or a center/ball defensive blend
// when it retreats, then applies sweet-spot offset, offensive angling,
// genome-scaled noise, playable-range clamping and exponential smoothing.
func (a *Agent) TargetY(cfg arena.Config, ball arena.Ball, paddle arena.Paddle, side arena.Side, rng *rand.Rand) float64 {
	if !a.primed {
		a.smoothedTarget = paddle.Y
		a.lastTarget = paddle.Y
		a.primed = true
	}

	if float64(a.reactionCounter) < a.Genome[genome.GeneReactionDelay] {
		a.reactionCounter++
		return a.smoothedTarget
	}
	a.reactionCounter = 0

	approaching := (side == arena.SideLeft && ball.VX < 0) ||
		(side == arena.SideRight && ball.VX > 0)

	var target float64
	if approaching {
		target = a.offensiveTarget(cfg, ball, paddle)
	} else {
		target = a.defensiveTarget(cfg, ball, paddle)
	}

	// Positioning noise: paddle-height-proportional error plus a small
	// fixed-pixel jitter, both symmetric.
	target += (rng.Float64() - 0.5) * a.Genome[genome.GeneErrorRate] * cfg.PaddleHeight
	target += (rng.Float64() - 0.5) * a.Genome[genome.GeneJitterAmount] * 8

	halfH := cfg.PaddleHeight / 2
	target = clamp(target, halfH, cfg.Height-halfH)

	smoothing := a.Genome[genome.GeneMovementSmoothing]
	a.smoothedTarget = a.smoothedTarget*smoothing + target*(1-smoothing)
	a.lastTarget = target
	return a.smoothedTarget
}

func (a *Agent) offensiveTarget(cfg arena.Config, ball arena.Ball, paddle arena.Paddle) float64 {
	tracking := ball.Y
	predicted := tracking
	if ball.VX != 0 {
		dt := (paddle.X - ball.X) / ball.VX
		predicted = foldIntoRange(ball.Y+ball.VY*dt, cfg.Height)
	}

	tw := a.Genome[genome.GeneTrackingWeight]
	pw := a.Genome[genome.GenePredictionWeight]
	var target float64
	if tw+pw > 0 {
		target = (tracking*tw + predicted*pw) / (tw + pw)
	} else {
		target = ball.Y
	}

	target += a.Genome[genome.GeneSweetSpot] * cfg.PaddleHeight * 0.25

	if a.Genome[genome.GeneOffensiveAngling] > 0.5 &&
		math.Abs(ball.X-paddle.X) < offensiveNearFraction*cfg.Width {
		edge := -sign(ball.VY)
		if edge == 0 {
			edge = 1
		}
		target += 0.3 * cfg.PaddleHeight * edge
	}
	return target
}

func (a *Agent) defensiveTarget(cfg arena.Config, ball arena.Ball, paddle arena.Paddle) float64 {
	center := cfg.Height / 2
	dist := math.Abs(ball.X - paddle.X)
	if dist > a.Genome[genome.GeneDefensiveThreshold]*cfg.Width {
		bias := a.Genome[genome.GeneCenterBias]
		return center*bias + ball.Y*(1-bias)
	}
	aggr := a.Genome[genome.GeneAggressiveness]
	return center*(1-aggr) + ball.Y*aggr
}

// foldIntoRange mirrors a predicted vertical position off the top and
// bottom bounds until it lands inside [0, height], matching true bounce
// physics for a linear extrapolation.
func foldIntoRange(y, height float64) float64 {
	for y < 0 || y > height {
		if y < 0 {
			y = -y
		}
		if y > height {
			y = 2*height - y
		}
	}
	return y
}

var (
	namePrefixes = []string{"Swift", "Steady", "Crazy", "Calm", "Hyper", "Zen", "Wild", "Cool"}
	nameSuffixes = []string{"Bot", "AI", "Mind", "Brain", "Core", "Net", "Byte", "Bit"}
)

// generateName derives a display name deterministically from the gene
// values so renamed offspring reflect their traits.
func generateName(s *genome.Schema, g genome.Genome, id string) string {
	genes := s.Genes()
	var front, back float64
	for i, gene := range genes {
		if i < 3 {
			front += g[gene.Name]
		} else {
			back += g[gene.Name]
		}
	}
	prefix := namePrefixes[int(math.Abs(front)*100)%len(namePrefixes)]
	suffix := nameSuffixes[int(math.Abs(back)*100)%len(nameSuffixes)]
	return fmt.Sprintf("%s%s-%s", prefix, suffix, id)
}

func shortID() string {
	return uuid.NewString()[:8]
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
