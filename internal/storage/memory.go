package storage

import (
	"context"
	"sync"

	"pongevo/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	agents      map[string]model.AgentRecord
	agentOrder  []string
	tournaments map[string]model.TournamentRecord
	tournOrder  []string
	history     map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents = make(map[string]model.AgentRecord)
	s.agentOrder = nil
	s.tournaments = make(map[string]model.TournamentRecord)
	s.tournOrder = nil
	s.history = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveAgent(_ context.Context, record model.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[record.ID]; !exists {
		s.agentOrder = append(s.agentOrder, record.ID)
	}
	record.Genome = cloneGenes(record.Genome)
	s.agents[record.ID] = record
	return nil
}

func (s *MemoryStore) GetAgent(_ context.Context, id string) (model.AgentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.agents[id]
	if !ok {
		return model.AgentRecord{}, false, nil
	}
	record.Genome = cloneGenes(record.Genome)
	return record, true, nil
}

func (s *MemoryStore) ListAgents(_ context.Context) ([]model.AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AgentRecord, 0, len(s.agentOrder))
	for _, id := range s.agentOrder {
		record := s.agents[id]
		record.Genome = cloneGenes(record.Genome)
		out = append(out, record)
	}
	return out, nil
}

func (s *MemoryStore) SaveTournament(_ context.Context, record model.TournamentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tournaments[record.ID]; !exists {
		s.tournOrder = append(s.tournOrder, record.ID)
	}
	s.tournaments[record.ID] = record
	return nil
}

func (s *MemoryStore) GetTournament(_ context.Context, id string) (model.TournamentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tournaments[id]
	return record, ok, nil
}

func (s *MemoryStore) ListTournaments(_ context.Context) ([]model.TournamentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TournamentRecord, 0, len(s.tournOrder))
	for _, id := range s.tournOrder {
		out = append(out, s.tournaments[id])
	}
	return out, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func cloneGenes(g map[string]float64) map[string]float64 {
	if g == nil {
		return nil
	}
	out := make(map[string]float64, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}
