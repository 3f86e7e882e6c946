package storage

import (
	"encoding/json"
	"errors"

	"pongevo/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeAgent(a model.AgentRecord) ([]byte, error) {
	return json.Marshal(a)
}

func DecodeAgent(data []byte) (model.AgentRecord, error) {
	var record model.AgentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.AgentRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.AgentRecord{}, err
	}
	return record, nil
}

func EncodeTournament(t model.TournamentRecord) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTournament(data []byte) (model.TournamentRecord, error) {
	var record model.TournamentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.TournamentRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.TournamentRecord{}, err
	}
	return record, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
