package genome

import (
	"fmt"
	"math/rand"
)

// Gene defines one named trait with closed bounds.
type Gene struct {
	Name string
	Min  float64
	Max  float64
}

// Schema is the fixed gene layout shared by every genome in a run.
type Schema struct {
	genes []Gene
	index map[string]int
}

// Genome maps gene name to value. Values always lie within the schema
// bounds; new genomes are produced by NewRandom, Crossover and Mutate
// rather than edited in place.
type Genome map[string]float64

// Gene names of the default paddle schema.
const (
	GeneReactionDelay      = "reactionDelay"
	GeneTrackingWeight     = "trackingWeight"
	GenePredictionWeight   = "predictionWeight"
	GeneSweetSpot          = "sweetSpot"
	GeneOffensiveAngling   = "offensiveAngling"
	GeneCenterBias         = "centerBias"
	GeneAggressiveness     = "aggressiveness"
	GeneDefensiveThreshold = "defensiveThreshold"
	GeneErrorRate          = "errorRate"
	GeneJitterAmount       = "jitterAmount"
	GeneMovementSmoothing  = "movementSmoothing"
)

// NewSchema validates the gene list: names must be unique and non-empty,
// bounds must not be inverted.
func NewSchema(genes []Gene) (*Schema, error) {
	if len(genes) == 0 {
		return nil, fmt.Errorf("schema requires at least one gene")
	}
	index := make(map[string]int, len(genes))
	for i, g := range genes {
		if g.Name == "" {
			return nil, fmt.Errorf("gene name is required at index %d", i)
		}
		if _, exists := index[g.Name]; exists {
			return nil, fmt.Errorf("duplicate gene: %s", g.Name)
		}
		if g.Min > g.Max {
			return nil, fmt.Errorf("gene %s has inverted bounds: [%v, %v]", g.Name, g.Min, g.Max)
		}
		index[g.Name] = i
	}
	return &Schema{genes: append([]Gene(nil), genes...), index: index}, nil
}

// DefaultPaddleSchema returns the eleven-gene paddle controller schema.
func DefaultPaddleSchema() *Schema {
	s, err := NewSchema([]Gene{
		{Name: GeneReactionDelay, Min: 0, Max: 12},
		{Name: GeneTrackingWeight, Min: 0, Max: 1},
		{Name: GenePredictionWeight, Min: 0, Max: 1},
		{Name: GeneSweetSpot, Min: -1, Max: 1},
		{Name: GeneOffensiveAngling, Min: 0, Max: 1},
		{Name: GeneCenterBias, Min: 0, Max: 1},
		{Name: GeneAggressiveness, Min: 0, Max: 1},
		{Name: GeneDefensiveThreshold, Min: 0, Max: 1},
		{Name: GeneErrorRate, Min: 0, Max: 1},
		{Name: GeneJitterAmount, Min: 0, Max: 1},
		{Name: GeneMovementSmoothing, Min: 0, Max: 0.9},
	})
	if err != nil {
		panic(err) // static schema, bounds are known-good
	}
	return s
}

// Genes returns the schema's gene list in declaration order.
func (s *Schema) Genes() []Gene {
	return append([]Gene(nil), s.genes...)
}

// Bounds reports the closed interval for a named gene.
func (s *Schema) Bounds(name string) (min, max float64, ok bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, 0, false
	}
	return s.genes[i].Min, s.genes[i].Max, true
}

// Len reports the number of genes in the schema.
func (s *Schema) Len() int {
	return len(s.genes)
}

// Validate checks that a genome carries exactly the schema's gene set
// with every value in bounds.
func (s *Schema) Validate(g Genome) error {
	if len(g) != len(s.genes) {
		return fmt.Errorf("genome has %d genes, schema has %d", len(g), len(s.genes))
	}
	for _, gene := range s.genes {
		v, ok := g[gene.Name]
		if !ok {
			return fmt.Errorf("genome missing gene: %s", gene.Name)
		}
		if v < gene.Min || v > gene.Max {
			return fmt.Errorf("gene %s out of bounds: %v not in [%v, %v]", gene.Name, v, gene.Min, gene.Max)
		}
	}
	return nil
}

// NewRandom samples each gene uniformly within its bounds.
func NewRandom(s *Schema, rng *rand.Rand) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	g := make(Genome, len(s.genes))
	for _, gene := range s.genes {
		g[gene.Name] = gene.Min + rng.Float64()*(gene.Max-gene.Min)
	}
	return g, nil
}

// Crossover combines two parents gene by gene: a 50/50 discrete pick
// from either parent, then with probability 0.3 the picked value is
// overwritten by the linear blend a*t + b*(1-t) for uniform t. The blend
// check runs after the discrete choice and can override it.
func Crossover(a, b Genome, s *Schema, rng *rand.Rand) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := s.Validate(a); err != nil {
		return nil, fmt.Errorf("parent a: %w", err)
	}
	if err := s.Validate(b); err != nil {
		return nil, fmt.Errorf("parent b: %w", err)
	}
	child := make(Genome, len(s.genes))
	for _, gene := range s.genes {
		av, bv := a[gene.Name], b[gene.Name]
		v := av
		if rng.Float64() < 0.5 {
			v = bv
		}
		if rng.Float64() < 0.3 {
			t := rng.Float64()
			v = av*t + bv*(1-t)
		}
		child[gene.Name] = clamp(v, gene.Min, gene.Max)
	}
	return child, nil
}

// Mutate perturbs each gene independently with the given probability by
// uniform noise in [-0.2*range, +0.2*range], clamped back into bounds.
// Unselected genes are copied unchanged.
func Mutate(g Genome, s *Schema, rate float64, rng *rand.Rand) (Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]: %v", rate)
	}
	if err := s.Validate(g); err != nil {
		return nil, err
	}
	mutated := make(Genome, len(s.genes))
	for _, gene := range s.genes {
		v := g[gene.Name]
		if rng.Float64() < rate {
			span := gene.Max - gene.Min
			v += (rng.Float64() - 0.5) * span * 0.4
		}
		mutated[gene.Name] = clamp(v, gene.Min, gene.Max)
	}
	return mutated, nil
}

// Clone returns an independent copy.
func Clone(g Genome) Genome {
	out := make(Genome, len(g))
	for name, v := range g {
		out[name] = v
	}
	return out
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
