// Package pongevo is the public client facade over the evolution
// league: population setup, tournament runs, standings and the
// persistent ledger.
package pongevo

import (
	"context"
	"errors"
	"fmt"

	"pongevo/internal/arena"
	"pongevo/internal/genome"
	"pongevo/internal/model"
	"pongevo/internal/platform"
	"pongevo/internal/storage"
)

const defaultDBPath = "pongevo.db"

// Options selects the storage backend for a Client.
type Options struct {
	StoreKind string
	DBPath    string
}

// Client owns a store and a lazily constructed league.
type Client struct {
	store  storage.Store
	league *platform.League
}

// RunRequest configures a tournament run. Zero values receive defaults;
// MatchesPerPairing must be odd so a series cannot split evenly.
type RunRequest struct {
	Population        int
	Tournaments       int
	Seed              int64
	MutationRate      float64
	PointsToWin       int
	MatchesPerPairing int
	MaxFramesPerGame  int
}

// TournamentItem summarizes one bracket for callers.
type TournamentItem struct {
	Index        int
	Rounds       int
	ChampionID   string
	ChampionName string
	BestFitness  float64
	GamesPlayed  int
	Timeouts     int
}

// RunSummary reports a completed run.
type RunSummary struct {
	Tournaments        []TournamentItem
	BestFitnessHistory []float64
	ChampionID         string
	ChampionName       string
	ChampionGenome     map[string]float64
}

// StandingsItem is one row of the fitness-sorted population snapshot.
type StandingsItem struct {
	Rank          int
	ID            string
	Name          string
	Generation    int
	Wins          int
	Losses        int
	PointsFor     int
	PointsAgainst int
	Fitness       float64
}

// Ledger is everything persisted so far.
type Ledger struct {
	Agents      []model.AgentRecord
	Tournaments []model.TournamentRecord
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init sets up the store and seeds a default-sized population.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureLeague(ctx, RunRequest{})
	return err
}

// Run plays the requested tournaments with evolution between them.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Tournaments <= 0 {
		req.Tournaments = 1
	}
	if req.MatchesPerPairing != 0 && req.MatchesPerPairing%2 == 0 {
		return RunSummary{}, errors.New("matches per pairing must be odd")
	}

	league, err := c.ensureLeague(ctx, req)
	if err != nil {
		return RunSummary{}, err
	}

	result, err := league.RunTournaments(ctx, req.Tournaments)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		BestFitnessHistory: append([]float64(nil), result.BestFitnessHistory...),
	}
	for _, t := range result.Tournaments {
		summary.Tournaments = append(summary.Tournaments, TournamentItem{
			Index:        t.Index,
			Rounds:       t.Rounds,
			ChampionID:   t.Champion.ID,
			ChampionName: t.Champion.Name,
			BestFitness:  t.BestFitness,
			GamesPlayed:  t.GamesPlayed,
			Timeouts:     t.Timeouts,
		})
	}
	if result.Champion != nil {
		summary.ChampionID = result.Champion.ID
		summary.ChampionName = result.Champion.Name
		summary.ChampionGenome = make(map[string]float64, len(result.Champion.Genome))
		for name, v := range result.Champion.Genome {
			summary.ChampionGenome[name] = v
		}
	}
	return summary, nil
}

// Standings returns the current population ranked by fitness.
func (c *Client) Standings(ctx context.Context) ([]StandingsItem, error) {
	league, err := c.ensureLeague(ctx, RunRequest{})
	if err != nil {
		return nil, err
	}

	ranked := league.Standings()
	out := make([]StandingsItem, 0, len(ranked))
	for i, scored := range ranked {
		a := scored.Agent
		out = append(out, StandingsItem{
			Rank:          i + 1,
			ID:            a.ID,
			Name:          a.Name,
			Generation:    a.Generation,
			Wins:          a.Stats.Wins,
			Losses:        a.Stats.Losses,
			PointsFor:     a.Stats.PointsFor,
			PointsAgainst: a.Stats.PointsAgainst,
			Fitness:       scored.Fitness,
		})
	}
	return out, nil
}

// Ledger reads every persisted agent and tournament record.
func (c *Client) Ledger(ctx context.Context) (Ledger, error) {
	league, err := c.ensureLeague(ctx, RunRequest{})
	if err != nil {
		return Ledger{}, err
	}
	agents, tournaments, err := league.Ledger(ctx)
	if err != nil {
		return Ledger{}, err
	}
	return Ledger{Agents: agents, Tournaments: tournaments}, nil
}

// FitnessHistory reads the best-fitness-per-tournament series.
func (c *Client) FitnessHistory(ctx context.Context) ([]float64, error) {
	league, err := c.ensureLeague(ctx, RunRequest{})
	if err != nil {
		return nil, err
	}
	history, ok, err := league.FitnessHistory(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history recorded yet")
	}
	return history, nil
}

// Reset clears the ledger and reseeds the population.
func (c *Client) Reset(ctx context.Context) error {
	league, err := c.ensureLeague(ctx, RunRequest{})
	if err != nil {
		return err
	}
	return league.Reset(ctx)
}

func (c *Client) ensureLeague(ctx context.Context, req RunRequest) (*platform.League, error) {
	if c.league != nil {
		return c.league, nil
	}

	league, err := platform.NewLeague(platform.Config{
		Store:             c.store,
		Schema:            genome.DefaultPaddleSchema(),
		Arena:             arena.DefaultConfig(),
		PopulationSize:    req.Population,
		MutationRate:      req.MutationRate,
		PointsToWin:       req.PointsToWin,
		MatchesPerPairing: req.MatchesPerPairing,
		MaxFramesPerGame:  req.MaxFramesPerGame,
		Seed:              req.Seed,
	})
	if err != nil {
		return nil, err
	}
	if err := league.Init(ctx); err != nil {
		return nil, err
	}
	c.league = league
	return c.league, nil
}
