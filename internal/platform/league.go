package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"pongevo/internal/agent"
	"pongevo/internal/arena"
	"pongevo/internal/bracket"
	"pongevo/internal/evo"
	"pongevo/internal/genome"
	"pongevo/internal/model"
	"pongevo/internal/storage"
)

// Config wires a League: storage, gene schema, field geometry and the
// tournament knobs. Zero-valued knobs receive defaults in NewLeague.
type Config struct {
	Store             storage.Store
	Schema            *genome.Schema
	Arena             arena.Config
	PopulationSize    int
	MutationRate      float64
	PointsToWin       int
	MatchesPerPairing int
	MaxFramesPerGame  int
	Seed              int64
}

const (
	defaultPopulationSize    = 8
	defaultMutationRate      = 0.1
	defaultPointsToWin       = 5
	defaultMatchesPerPairing = 3
	defaultMaxFramesPerGame  = 10000
)

// TournamentSummary reports one completed bracket.
type TournamentSummary struct {
	Index        int
	Rounds       int
	Champion     *agent.Agent
	SeriesPlayed int
	GamesPlayed  int
	Timeouts     int
	BestFitness  float64
}

// RunSummary aggregates a multi-tournament run.
type RunSummary struct {
	Tournaments        []TournamentSummary
	BestFitnessHistory []float64
	Champion           *agent.Agent
	FinalPopulation    []*agent.Agent
}

// League owns the population, the store and the injected random source,
// and drives tournaments with evolution between them. One League is
// driven by one goroutine; the mutex guards read-side snapshots.
type League struct {
	cfg    Config
	store  storage.Store
	schema *genome.Schema
	rng    *rand.Rand

	mu             sync.RWMutex
	population     []*agent.Agent
	tournamentsRun int
	started        bool
}

// The fitness history of a league run is stored under a single key; the
// store supports multiple runs but the league drives exactly one.
const leagueRunID = "league"

// NewLeague validates the configuration and applies defaults. The
// population is not created until Init.
func NewLeague(cfg Config) (*League, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Schema == nil {
		cfg.Schema = genome.DefaultPaddleSchema()
	}
	if cfg.Arena == (arena.Config{}) {
		cfg.Arena = arena.DefaultConfig()
	}
	if err := cfg.Arena.Validate(); err != nil {
		return nil, err
	}
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = defaultPopulationSize
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("population size must be >= 2, got %d", cfg.PopulationSize)
	}
	if cfg.MutationRate == 0 {
		cfg.MutationRate = defaultMutationRate
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]: %v", cfg.MutationRate)
	}
	if cfg.PointsToWin == 0 {
		cfg.PointsToWin = defaultPointsToWin
	}
	if cfg.PointsToWin < 1 {
		return nil, fmt.Errorf("points to win must be >= 1, got %d", cfg.PointsToWin)
	}
	if cfg.MatchesPerPairing == 0 {
		cfg.MatchesPerPairing = defaultMatchesPerPairing
	}
	if cfg.MatchesPerPairing < 1 {
		return nil, fmt.Errorf("matches per pairing must be >= 1, got %d", cfg.MatchesPerPairing)
	}
	if cfg.MaxFramesPerGame == 0 {
		cfg.MaxFramesPerGame = defaultMaxFramesPerGame
	}
	if cfg.MaxFramesPerGame < 1 {
		return nil, fmt.Errorf("max frames per game must be >= 1, got %d", cfg.MaxFramesPerGame)
	}

	return &League{
		cfg:    cfg,
		store:  cfg.Store,
		schema: cfg.Schema,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Init initializes the store and seeds a fresh random population.
func (l *League) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}
	if err := l.store.Init(ctx); err != nil {
		return err
	}

	population := make([]*agent.Agent, 0, l.cfg.PopulationSize)
	for i := 0; i < l.cfg.PopulationSize; i++ {
		a, err := agent.New(l.schema, 0, l.rng)
		if err != nil {
			return err
		}
		population = append(population, a)
	}
	l.population = population
	l.tournamentsRun = 0
	l.started = true
	return nil
}

// Reset clears the ledger and reseeds the population.
func (l *League) Reset(ctx context.Context) error {
	l.mu.Lock()
	l.started = false
	l.mu.Unlock()

	if err := l.store.Reset(ctx); err != nil {
		return err
	}
	return l.Init(ctx)
}

// Population returns a snapshot slice; the agents themselves are shared.
func (l *League) Population() []*agent.Agent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*agent.Agent(nil), l.population...)
}

// Started reports whether Init has completed.
func (l *League) Started() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started
}

// RunTournament clears population statistics, plays one full
// single-elimination bracket and persists the resulting ledger records.
func (l *League) RunTournament(ctx context.Context) (TournamentSummary, error) {
	l.mu.RLock()
	started := l.started
	population := append([]*agent.Agent(nil), l.population...)
	l.mu.RUnlock()

	if !started {
		return TournamentSummary{}, fmt.Errorf("league is not initialized")
	}

	for _, a := range population {
		a.ResetStats()
	}

	b, err := bracket.Build(population, l.cfg.MatchesPerPairing, l.rng)
	if err != nil {
		return TournamentSummary{}, err
	}

	summary := TournamentSummary{Rounds: b.RoundCount()}
	for slot := b.NextMatch(); slot != nil; slot = b.NextMatch() {
		if err := ctx.Err(); err != nil {
			return TournamentSummary{}, err
		}
		games, timeouts, err := l.playSeries(b, slot)
		if err != nil {
			return TournamentSummary{}, err
		}
		summary.SeriesPlayed++
		summary.GamesPlayed += games
		summary.Timeouts += timeouts
	}

	champion := b.Champion()
	if champion == nil {
		return TournamentSummary{}, fmt.Errorf("bracket finished without a champion")
	}
	summary.Champion = champion

	ranked := evo.Rank(population)
	summary.BestFitness = ranked[0].Fitness

	l.mu.Lock()
	l.tournamentsRun++
	summary.Index = l.tournamentsRun
	l.mu.Unlock()

	if err := l.persistTournament(ctx, summary, population); err != nil {
		return TournamentSummary{}, err
	}
	return summary, nil
}

// RunTournaments plays n tournaments, evolving the population between
// consecutive brackets. The population after the final tournament is
// returned unevolved so its statistics remain inspectable.
func (l *League) RunTournaments(ctx context.Context, n int) (RunSummary, error) {
	if n < 1 {
		return RunSummary{}, fmt.Errorf("tournament count must be >= 1, got %d", n)
	}

	var run RunSummary
	for i := 0; i < n; i++ {
		if i > 0 {
			next, err := evo.Evolve(l.Population(), l.schema, l.cfg.MutationRate, l.rng)
			if err != nil {
				return RunSummary{}, err
			}
			l.mu.Lock()
			l.population = next
			l.mu.Unlock()
		}

		summary, err := l.RunTournament(ctx)
		if err != nil {
			return RunSummary{}, err
		}
		run.Tournaments = append(run.Tournaments, summary)
		run.BestFitnessHistory = append(run.BestFitnessHistory, summary.BestFitness)
		run.Champion = summary.Champion
	}
	run.FinalPopulation = l.Population()

	if err := l.store.SaveFitnessHistory(ctx, leagueRunID, run.BestFitnessHistory); err != nil {
		return RunSummary{}, err
	}
	return run, nil
}

// Standings ranks the current population by fitness.
func (l *League) Standings() []evo.ScoredAgent {
	return evo.Rank(l.Population())
}

// Ledger returns every persisted agent and tournament record.
func (l *League) Ledger(ctx context.Context) ([]model.AgentRecord, []model.TournamentRecord, error) {
	agents, err := l.store.ListAgents(ctx)
	if err != nil {
		return nil, nil, err
	}
	tournaments, err := l.store.ListTournaments(ctx)
	if err != nil {
		return nil, nil, err
	}
	return agents, tournaments, nil
}

// FitnessHistory returns the best-fitness-per-tournament series from
// the last persisted run.
func (l *League) FitnessHistory(ctx context.Context) ([]float64, bool, error) {
	return l.store.GetFitnessHistory(ctx, leagueRunID)
}

// playSeries drives one slot to completion, returning the game and
// timeout counts.
func (l *League) playSeries(b *bracket.Bracket, slot *bracket.Slot) (games, timeouts int, err error) {
	match, err := arena.NewMatch(l.cfg.Arena, slot.Player1, slot.Player2, l.rng)
	if err != nil {
		return 0, 0, err
	}

	for {
		slot.Player1.ResetRuntimeState()
		slot.Player2.ResetRuntimeState()

		left, right, timedOut := l.playGame(match)
		games++
		if timedOut {
			timeouts++
		}

		done, err := b.RecordResult(slot, left, right)
		if err != nil {
			return games, timeouts, err
		}
		if done {
			return games, timeouts, nil
		}
		match.ResetGame()
	}
}

// playGame steps one game to its end. A game normally ends when either
// side reaches the points target; past the frame cap the current leader
// wins, with tied games playing on until the next point settles them.
func (l *League) playGame(m *arena.Match) (left, right int, timedOut bool) {
	frames := 0
	for {
		m.Step()
		frames++
		left, right = m.Scores()
		if left >= l.cfg.PointsToWin || right >= l.cfg.PointsToWin {
			return left, right, false
		}
		if frames >= l.cfg.MaxFramesPerGame && left != right {
			return left, right, true
		}
	}
}

func (l *League) persistTournament(ctx context.Context, summary TournamentSummary, population []*agent.Agent) error {
	for _, a := range population {
		record, err := l.mergeLedgerRecord(ctx, a)
		if err != nil {
			return err
		}
		if err := l.store.SaveAgent(ctx, record); err != nil {
			return err
		}
	}
	record := model.TournamentRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:             fmt.Sprintf("t-%04d", summary.Index),
		Index:          summary.Index,
		PopulationSize: len(population),
		Rounds:         summary.Rounds,
		ChampionID:     summary.Champion.ID,
		ChampionName:   summary.Champion.Name,
		BestFitness:    summary.BestFitness,
	}
	return l.store.SaveTournament(ctx, record)
}

// mergeLedgerRecord folds an agent's tournament statistics into its
// all-time ledger record: cumulative totals, best fitness seen.
func (l *League) mergeLedgerRecord(ctx context.Context, a *agent.Agent) (model.AgentRecord, error) {
	record := toAgentRecord(a)
	existing, ok, err := l.store.GetAgent(ctx, a.ID)
	if err != nil {
		return model.AgentRecord{}, err
	}
	if !ok {
		return record, nil
	}
	record.Wins += existing.Wins
	record.Losses += existing.Losses
	record.PointsFor += existing.PointsFor
	record.PointsAgainst += existing.PointsAgainst
	record.MatchesPlayed += existing.MatchesPlayed
	if existing.Fitness > record.Fitness {
		record.Fitness = existing.Fitness
	}
	return record, nil
}

func toAgentRecord(a *agent.Agent) model.AgentRecord {
	genes := make(map[string]float64, len(a.Genome))
	for name, v := range a.Genome {
		genes[name] = v
	}
	return model.AgentRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:            a.ID,
		Name:          a.Name,
		Generation:    a.Generation,
		Genome:        genes,
		Wins:          a.Stats.Wins,
		Losses:        a.Stats.Losses,
		PointsFor:     a.Stats.PointsFor,
		PointsAgainst: a.Stats.PointsAgainst,
		MatchesPlayed: a.Stats.MatchesPlayed,
		Fitness:       a.Stats.Fitness,
	}
}
