// Command router solves one pickup instance and prints the routes.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shuttle-router/internal/config"
	"shuttle-router/internal/database"
	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
	"shuttle-router/internal/report"
	"shuttle-router/internal/routing"
	"shuttle-router/internal/scenario"
	"shuttle-router/internal/sqlite"
)

const (
	exitOK         = 0
	exitError      = 1
	exitMalformed  = 2
	exitInfeasible = 3
)

type options struct {
	configPath string
	seed       int64
	staff      int
	vehicles   int
	depotStart bool

	strategy      string
	policy        string
	maxIterations int
	timeLimit     time.Duration
	workers       int
	noSearch      bool

	printData bool
	asJSON    bool
	dumpPath  string
	export    bool
	save      bool
	dbPath    string
	notes     string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(exitCode(run(ctx, os.Args[1:], os.Stdout)))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, problem.ErrInfeasibleProblem):
		fmt.Fprintf(os.Stderr, "No solution: %v\n", err)
		return exitInfeasible
	case errors.Is(err, problem.ErrMalformedInput):
		fmt.Fprintf(os.Stderr, "Invalid input: %v\n", err)
		return exitMalformed
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
}

func parseFlags(args []string, env config.Env) (*options, error) {
	defaults := scenario.Default()
	opts := &options{}

	fs := flag.NewFlagSet("router", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML instance file; a synthetic instance is generated when empty")
	fs.Int64Var(&opts.seed, "seed", defaults.Seed, "synthetic instance seed")
	fs.IntVar(&opts.staff, "staff", defaults.Staff, "synthetic staff count")
	fs.IntVar(&opts.vehicles, "vehicles", defaults.Vehicles, "synthetic vehicle count")
	fs.BoolVar(&opts.depotStart, "depot-start", false, "synthetic vehicles start at the depot")

	fs.StringVar(&opts.strategy, "strategy", "", "construction strategy: nearest_arc, round_robin_arc, cheapest_insertion")
	fs.StringVar(&opts.policy, "policy", "", "local search policy: best_improvement, first_improvement")
	fs.IntVar(&opts.maxIterations, "max-iterations", 0, "maximum applied moves (0 = unlimited)")
	fs.DurationVar(&opts.timeLimit, "time-limit", 0, fmt.Sprintf("search time limit (default from ROUTER_TIME_LIMIT, %v)", env.TimeLimit))
	fs.IntVar(&opts.workers, "workers", 0, "parallel scan workers (0 = GOMAXPROCS)")
	fs.BoolVar(&opts.noSearch, "no-search", false, "return the constructed solution without local search")

	fs.BoolVar(&opts.printData, "print-data", false, "print the distance matrix and instance data before solving")
	fs.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	fs.StringVar(&opts.dumpPath, "dump", "", "write the instance as YAML to this path")
	fs.BoolVar(&opts.export, "export", false, "write the result JSON to the export directory")
	fs.BoolVar(&opts.save, "save", false, "store the result in run history")
	fs.StringVar(&opts.dbPath, "db", env.DBPath, "run history database path")
	fs.StringVar(&opts.notes, "notes", "", "notes stored with the run")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// loadInstance reads the instance file or generates a synthetic one, then applies flag overrides
func loadInstance(opts *options, env config.Env) (*config.Instance, error) {
	var inst *config.Instance
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		inst = loaded
	} else {
		cfg := scenario.Default()
		cfg.Seed = opts.seed
		cfg.Staff = opts.staff
		cfg.Vehicles = opts.vehicles
		cfg.DepotStarts = opts.depotStart
		generated, err := scenario.Generate(cfg)
		if err != nil {
			return nil, &problem.MalformedInputError{Field: "scenario", Reason: "invalid synthetic instance", Err: err}
		}
		inst = generated
	}

	s := &inst.Solver
	if opts.strategy != "" {
		s.Strategy = opts.strategy
	}
	if opts.policy != "" {
		s.Policy = opts.policy
	}
	if opts.maxIterations != 0 {
		s.MaxIterations = opts.maxIterations
	}
	if opts.timeLimit != 0 {
		s.TimeLimit = config.Duration(opts.timeLimit)
	}
	if opts.workers != 0 {
		s.Workers = opts.workers
	}
	if opts.noSearch {
		s.SkipLocalSearch = true
	}
	inst.Solver = s.WithDefaults(env)
	if opts.notes != "" {
		inst.Notes = opts.notes
	}
	return inst, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	env := config.FromEnv()
	opts, err := parseFlags(args, env)
	if err != nil {
		return err
	}

	inst, err := loadInstance(opts, env)
	if err != nil {
		return err
	}

	if opts.dumpPath != "" {
		if err := dumpInstance(opts.dumpPath, inst); err != nil {
			return err
		}
	}

	routingOpts, err := inst.Solver.RoutingOptions()
	if err != nil {
		return err
	}
	in, err := inst.ProblemInput()
	if err != nil {
		return err
	}
	p, err := problem.New(ctx, in, inst.Solver.ProblemOptions())
	if err != nil {
		return err
	}

	if opts.printData {
		if err := report.PrintData(stdout, p); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	result, err := routing.NewRouter(routingOpts).CalculateRoutes(ctx, p)
	if err != nil {
		return err
	}

	if opts.asJSON {
		err = report.WriteJSON(stdout, result)
	} else {
		err = report.PrintSolution(stdout, result)
	}
	if err != nil {
		return err
	}

	if opts.export {
		path, err := exportResult(result)
		if err != nil {
			return err
		}
		log.Printf("[EXPORT] Wrote %s", path)
	}

	if opts.save {
		if err := saveRun(ctx, opts.dbPath, result, inst.Notes); err != nil {
			return err
		}
	}
	return nil
}

func dumpInstance(path string, inst *config.Instance) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	if err := inst.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close dump file: %w", err)
	}
	log.Printf("[CONFIG] Dumped instance to %s", path)
	return nil
}

func exportResult(result *models.RoutingResult) (string, error) {
	dir, err := database.GetExportDir()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, result); err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.RunID+".json")
	if err := database.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func saveRun(ctx context.Context, dbPath string, result *models.RoutingResult, notes string) error {
	if dbPath == "" {
		var err error
		dbPath, err = database.GetDefaultDBPath()
		if err != nil {
			return err
		}
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	if err := store.Runs().Create(ctx, result, notes); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	log.Printf("[SQLITE] Saved run %s", result.RunID)
	return nil
}
