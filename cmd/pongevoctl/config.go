package main

import (
	"encoding/json"
	"fmt"
	"os"

	api "pongevo/pkg/pongevo"
)

func loadRunRequestFromConfig(path string) (api.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.RunRequest{}, err
	}

	var req api.RunRequest
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["tournaments"]); ok {
		req.Tournaments = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asInt(raw["points_to_win"]); ok {
		req.PointsToWin = v
	}
	if v, ok := asInt(raw["matches_per_pairing"]); ok {
		req.MatchesPerPairing = v
	}
	if v, ok := asInt(raw["max_frames_per_game"]); ok {
		req.MaxFramesPerGame = v
	}
	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (api.RunRequest, error) {
	if configPath == "" {
		return api.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return api.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
