package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// AgentRecord is the persistent ledger form of one agent: identity,
// lineage, gene values, lifetime cumulative statistics and the best
// fitness it has ever scored.
type AgentRecord struct {
	VersionedRecord
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Generation    int                `json:"generation"`
	Genome        map[string]float64 `json:"genome"`
	Wins          int                `json:"wins"`
	Losses        int                `json:"losses"`
	PointsFor     int                `json:"points_for"`
	PointsAgainst int                `json:"points_against"`
	MatchesPlayed int                `json:"matches_played"`
	Fitness       float64            `json:"fitness"`
}

// TournamentRecord summarizes one completed bracket.
type TournamentRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	Index          int     `json:"index"`
	PopulationSize int     `json:"population_size"`
	Rounds         int     `json:"rounds"`
	ChampionID     string  `json:"champion_id"`
	ChampionName   string  `json:"champion_name"`
	BestFitness    float64 `json:"best_fitness"`
}
