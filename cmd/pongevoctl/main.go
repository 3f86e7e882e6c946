package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"pongevo/internal/model"
	"pongevo/internal/storage"
	api "pongevo/pkg/pongevo"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "standings":
		return runStandings(ctx, args[1:])
	case "ledger":
		return runLedger(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: pongevoctl <init|run|standings|ledger|fitness|reset> [flags]", msg)
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	population := fs.Int("pop", 8, "population size")
	tournaments := fs.Int("tournaments", 5, "tournament count")
	seed := fs.Int64("seed", 1, "rng seed")
	mutationRate := fs.Float64("mutation-rate", 0.1, "per-gene mutation probability")
	pointsToWin := fs.Int("points", 5, "points to win a game")
	matchesPerPairing := fs.Int("matches-per-pairing", 3, "games per series (odd)")
	maxFrames := fs.Int("max-frames", 10000, "frame cap per game")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	if *configPath == "" || setFlags["pop"] {
		req.Population = *population
	}
	if *configPath == "" || setFlags["tournaments"] {
		req.Tournaments = *tournaments
	}
	if *configPath == "" || setFlags["seed"] {
		req.Seed = *seed
	}
	if *configPath == "" || setFlags["mutation-rate"] {
		req.MutationRate = *mutationRate
	}
	if *configPath == "" || setFlags["points"] {
		req.PointsToWin = *pointsToWin
	}
	if *configPath == "" || setFlags["matches-per-pairing"] {
		req.MatchesPerPairing = *matchesPerPairing
	}
	if *configPath == "" || setFlags["max-frames"] {
		req.MaxFramesPerGame = *maxFrames
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	for _, t := range summary.Tournaments {
		fmt.Printf("tournament %d: champion=%s rounds=%d games=%d timeouts=%d best-fitness=%.1f\n",
			t.Index, t.ChampionName, t.Rounds, t.GamesPlayed, t.Timeouts, t.BestFitness)
	}
	fmt.Printf("champion: %s (%s)\n", summary.ChampionName, summary.ChampionID)
	printGenome(summary.ChampionGenome)
	return nil
}

func printGenome(genes map[string]float64) {
	names := make([]string, 0, len(genes))
	for name := range genes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-20s %.4f\n", name, genes[name])
	}
}

func runStandings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("standings", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	limit := fs.Int("limit", 20, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	ledger, err := client.Ledger(ctx)
	if err != nil {
		return err
	}
	agents := ledger.Agents
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].Fitness > agents[j].Fitness
	})
	if *limit > 0 && len(agents) > *limit {
		agents = agents[:*limit]
	}

	for i, a := range agents {
		fmt.Printf("%-5s %-22s gen=%-3d record=%d-%d points=%s/%s fitness=%.1f\n",
			humanize.Ordinal(i+1), a.Name, a.Generation, a.Wins, a.Losses,
			humanize.Comma(int64(a.PointsFor)), humanize.Comma(int64(a.PointsAgainst)), a.Fitness)
	}
	return nil
}

func runLedger(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	ledger, err := client.Ledger(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("tournaments: %s\n", humanize.Comma(int64(len(ledger.Tournaments))))
	for _, t := range ledger.Tournaments {
		fmt.Printf("  %s: champion=%s pop=%d rounds=%d best-fitness=%.1f\n",
			t.ID, t.ChampionName, t.PopulationSize, t.Rounds, t.BestFitness)
	}
	fmt.Printf("agents: %s\n", humanize.Comma(int64(len(ledger.Agents))))
	for _, a := range ledger.Agents {
		fmt.Printf("  %s %-22s gen=%-3d %s\n", a.ID, a.Name, a.Generation, formatRecord(a))
	}
	return nil
}

func formatRecord(a model.AgentRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "record=%d-%d", a.Wins, a.Losses)
	fmt.Fprintf(&b, " points=%s/%s", humanize.Comma(int64(a.PointsFor)), humanize.Comma(int64(a.PointsAgainst)))
	fmt.Fprintf(&b, " fitness=%.1f", a.Fitness)
	return b.String()
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx)
	if err != nil {
		return err
	}
	for i, fitness := range history {
		fmt.Printf("tournament %d: best-fitness=%.1f\n", i+1, fitness)
	}
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pongevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}
