package storage

import (
	"context"

	"pongevo/internal/model"
)

// Store defines persistence operations for the evolution ledger.
type Store interface {
	Init(ctx context.Context) error
	SaveAgent(ctx context.Context, record model.AgentRecord) error
	GetAgent(ctx context.Context, id string) (model.AgentRecord, bool, error)
	ListAgents(ctx context.Context) ([]model.AgentRecord, error)
	SaveTournament(ctx context.Context, record model.TournamentRecord) error
	GetTournament(ctx context.Context, id string) (model.TournamentRecord, bool, error)
	ListTournaments(ctx context.Context) ([]model.TournamentRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	Reset(ctx context.Context) error
}
