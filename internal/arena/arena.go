package arena

import (
	"fmt"
	"math"
	"math/rand"
)

// Side identifies a paddle's end of the field.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Outcome reports whether a simulation tick produced a point.
type Outcome int

const (
	PointNone Outcome = iota
	PointLeft
	PointRight
)

// Controller chooses a target paddle center for the current frame from
// the observed ball and paddle state. Implementations may keep per-series
// runtime state across frames.
type Controller interface {
	TargetY(cfg Config, ball Ball, paddle Paddle, side Side, rng *rand.Rand) float64
}

// Config holds the world geometry and kinematics for one match.
type Config struct {
	Width        float64
	Height       float64
	PaddleWidth  float64
	PaddleHeight float64
	PaddleSpeed  float64
	PaddleInset  float64
	BallRadius   float64
	BallSpeed    float64
	MaxBallSpeed float64
	ServeCone    float64 // max serve angle off the horizontal, radians
	MaxBounce    float64 // max paddle-bounce angle, radians
	SpeedUp      float64 // per-hit speed multiplier
}

// DefaultConfig returns the standard 800x600 field.
func DefaultConfig() Config {
	return Config{
		Width:        800,
		Height:       600,
		PaddleWidth:  10,
		PaddleHeight: 80,
		PaddleSpeed:  6,
		PaddleInset:  30,
		BallRadius:   10,
		BallSpeed:    5,
		MaxBallSpeed: 15,
		ServeCone:    math.Pi / 3,
		MaxBounce:    math.Pi / 3,
		SpeedUp:      1.05,
	}
}

// Validate rejects degenerate geometry before a match starts.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("field dimensions must be > 0: %vx%v", c.Width, c.Height)
	}
	if c.PaddleWidth <= 0 || c.PaddleHeight <= 0 || c.PaddleHeight > c.Height {
		return fmt.Errorf("invalid paddle dimensions: %vx%v", c.PaddleWidth, c.PaddleHeight)
	}
	if c.PaddleSpeed <= 0 {
		return fmt.Errorf("paddle speed must be > 0: %v", c.PaddleSpeed)
	}
	if c.BallSpeed <= 0 || c.MaxBallSpeed < c.BallSpeed {
		return fmt.Errorf("invalid ball speed range: [%v, %v]", c.BallSpeed, c.MaxBallSpeed)
	}
	if c.SpeedUp < 1 {
		return fmt.Errorf("speed-up factor must be >= 1: %v", c.SpeedUp)
	}
	return nil
}

// Ball carries position and velocity.
type Ball struct {
	X, Y   float64
	VX, VY float64
}

// Paddle carries position only; dimensions live in Config.
type Paddle struct {
	X, Y float64
}

// Match simulates a single pong game between two controllers. One Match
// instance is owned by exactly one caller; there is no internal locking.
type Match struct {
	cfg   Config
	rng   *rand.Rand
	left  Controller
	right Controller

	ball       Ball
	leftPaddle Paddle
	rightPad   Paddle

	leftScore  int
	rightScore int

	serving  bool
	serveDir float64
}

// NewMatch validates the configuration and positions both paddles. The
// first serve direction is drawn from the injected random source.
func NewMatch(cfg Config, left, right Controller, rng *rand.Rand) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("both controllers are required")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	m := &Match{cfg: cfg, rng: rng, left: left, right: right}
	m.ResetGame()
	return m, nil
}

// ResetGame zeroes the scores and re-centers ball and paddles for the
// next game within a series. Serve direction is re-randomized.
func (m *Match) ResetGame() {
	m.leftScore = 0
	m.rightScore = 0
	m.leftPaddle = Paddle{X: m.cfg.PaddleInset, Y: m.cfg.Height / 2}
	m.rightPad = Paddle{X: m.cfg.Width - m.cfg.PaddleInset, Y: m.cfg.Height / 2}
	m.serveDir = 1
	if m.rng.Float64() < 0.5 {
		m.serveDir = -1
	}
	m.serving = true
}

// Scores reports the current left and right score.
func (m *Match) Scores() (left, right int) {
	return m.leftScore, m.rightScore
}

// State exposes a read-only snapshot for observers.
func (m *Match) State() (ball Ball, left, right Paddle) {
	return m.ball, m.leftPaddle, m.rightPad
}

// Step advances the simulation one tick and reports whether either side
// scored. Serving happens at the start of the tick that follows a point
// (or the first tick of a game).
func (m *Match) Step() Outcome {
	if m.serving {
		m.serve()
	}

	m.movePaddle(&m.leftPaddle, m.left, SideLeft)
	m.movePaddle(&m.rightPad, m.right, SideRight)

	m.ball.X += m.ball.VX
	m.ball.Y += m.ball.VY

	// Top/bottom wall bounce, repositioned exactly on the boundary.
	if m.ball.Y-m.cfg.BallRadius <= 0 {
		m.ball.Y = m.cfg.BallRadius
		m.ball.VY = math.Abs(m.ball.VY)
	} else if m.ball.Y+m.cfg.BallRadius >= m.cfg.Height {
		m.ball.Y = m.cfg.Height - m.cfg.BallRadius
		m.ball.VY = -math.Abs(m.ball.VY)
	}

	m.collidePaddle(m.leftPaddle, SideLeft)
	m.collidePaddle(m.rightPad, SideRight)

	if m.ball.X < 0 {
		m.rightScore++
		m.serving = true
		return PointRight
	}
	if m.ball.X > m.cfg.Width {
		m.leftScore++
		m.serving = true
		return PointLeft
	}
	return PointNone
}

func (m *Match) serve() {
	m.ball.X = m.cfg.Width / 2
	m.ball.Y = m.cfg.Height / 2
	angle := (m.rng.Float64()*2 - 1) * m.cfg.ServeCone
	m.ball.VX = m.cfg.BallSpeed * math.Cos(angle) * m.serveDir
	m.ball.VY = m.cfg.BallSpeed * math.Sin(angle)
	m.serveDir = -m.serveDir
	m.serving = false
}

func (m *Match) movePaddle(p *Paddle, ctrl Controller, side Side) {
	target := ctrl.TargetY(m.cfg, m.ball, *p, side, m.rng)
	diff := target - p.Y
	if diff > m.cfg.PaddleSpeed {
		diff = m.cfg.PaddleSpeed
	} else if diff < -m.cfg.PaddleSpeed {
		diff = -m.cfg.PaddleSpeed
	}
	halfH := m.cfg.PaddleHeight / 2
	p.Y = clamp(p.Y+diff, halfH, m.cfg.Height-halfH)
}

func (m *Match) collidePaddle(p Paddle, side Side) {
	// Only a ball travelling toward this paddle can collide with it.
	if side == SideLeft && m.ball.VX >= 0 {
		return
	}
	if side == SideRight && m.ball.VX <= 0 {
		return
	}

	halfW := m.cfg.PaddleWidth / 2
	halfH := m.cfg.PaddleHeight / 2
	r := m.cfg.BallRadius
	if m.ball.X+r < p.X-halfW || m.ball.X-r > p.X+halfW {
		return
	}
	if m.ball.Y+r < p.Y-halfH || m.ball.Y-r > p.Y+halfH {
		return
	}

	offset := clamp((m.ball.Y-p.Y)/halfH, -1, 1)
	angle := offset * m.cfg.MaxBounce
	speed := math.Hypot(m.ball.VX, m.ball.VY)
	speed = math.Min(speed*m.cfg.SpeedUp, m.cfg.MaxBallSpeed)

	if side == SideLeft {
		m.ball.VX = math.Abs(speed * math.Cos(angle))
		m.ball.X = p.X + halfW + r
	} else {
		m.ball.VX = -math.Abs(speed * math.Cos(angle))
		m.ball.X = p.X - halfW - r
	}
	m.ball.VY = speed * math.Sin(angle)
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
