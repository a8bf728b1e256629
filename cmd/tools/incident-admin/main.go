// cmd/tools/incident-admin/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"incident-triage/internal/analysis"
	"incident-triage/internal/classifier"
	"incident-triage/internal/common/config"
	"incident-triage/internal/common/database"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
	"incident-triage/internal/search"
	"incident-triage/internal/store"
	"incident-triage/pkg/registry"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "reset":
		err = runReset(os.Args[2:])
	case "classify":
		err = runClassify(os.Args[2:], os.Stdout)
	case "registry":
		err = runRegistry(os.Args[2:], os.Stdout)
	case "analyze":
		err = runAnalyze(os.Args[2:], os.Stdout)
	default:
		help()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: incident-admin <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  init      Create or upgrade the incidents table and search index")
	fmt.Println("  reset     Delete every incident, restart ids and rebuild the search index")
	fmt.Println("  classify  Classify one incident and print the result as JSON")
	fmt.Println("  registry  Print the activity registry or validate a registry file")
	fmt.Println("  analyze   Mine association rules across stored incidents")
}

// environment holds the connections shared by init and reset.
type environment struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	redis *database.RedisClient
	store *store.Store
	log   logger.Logger
}

func connect(ctx context.Context, configPath string) (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	opts := []store.Option{store.WithQueryTimeout(cfg.Store.QueryTimeout)}
	var rc *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			pg.Close()
			return nil, err
		}
		opts = append(opts, store.WithCache(rc.Client, cfg.Store.CacheTTL))
	}

	return &environment{
		cfg:   cfg,
		pg:    pg,
		redis: rc,
		store: store.New(pg.DB, log, opts...),
		log:   log,
	}, nil
}

func (e *environment) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
	e.pg.Close()
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (defaults to configs/config.yaml)")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env, err := connect(ctx, *configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("Incidents table is up to date.")

	if !env.cfg.Search.Enabled {
		return nil
	}
	es, err := database.NewElasticsearch(env.cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	index := search.New(es.Client, env.cfg.Search.Index, env.log)
	if err := index.EnsureIndex(ctx); err != nil {
		return err
	}
	fmt.Printf("Search index %q is ready.\n", index.Name())
	return nil
}

func runReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (defaults to configs/config.yaml)")
	confirm := fs.Bool("yes", false, "Confirm deleting every incident")
	fs.Parse(args)

	if !*confirm {
		return fmt.Errorf("reset deletes every incident; rerun with -yes to confirm")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env, err := connect(ctx, *configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	var index indexResetter
	if env.cfg.Search.Enabled {
		es, err := database.NewElasticsearch(env.cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		index = search.New(es.Client, env.cfg.Search.Index, env.log)
	}
	return resetAll(ctx, env.store, index, os.Stdout)
}

type storeResetter interface {
	Reset(ctx context.Context) error
}

type indexResetter interface {
	Reset(ctx context.Context) error
	Name() string
}

// resetAll empties the store, then drops and recreates the search index so
// search never returns incidents the store no longer has. index may be nil.
func resetAll(ctx context.Context, st storeResetter, index indexResetter, out io.Writer) error {
	if err := st.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "All incidents deleted.")

	if index == nil {
		return nil
	}
	if err := index.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Search index %q rebuilt.\n", index.Name())
	return nil
}

func runClassify(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(out)
	var input classifier.IncidentInput
	fs.StringVar(&input.Title, "title", "", "Incident title")
	fs.StringVar(&input.Description, "description", "", "Incident description")
	fs.StringVar(&input.Severity, "severity", "", "Reported severity (critical, high, 4, ...)")
	fs.StringVar(&input.IncidentFrequency, "frequency", "", "Incident frequency (continuous, intermittent, ...)")
	fs.StringVar(&input.ServiceAffected, "service", "", "Affected service")
	fs.StringVar(&input.RootCauseCategory, "root-cause", "", "Suspected root cause category")
	fs.StringVar(&input.Tags, "tags", "", "Comma separated tags")
	fs.StringVar(&input.WebsiteType, "website-type", "", "Website type")
	configPath := fs.String("config", "", "Config file whose classifier.service_boosts replace the built-in boosts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cls, err := newClassifier(*configPath)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cls.Classify(input))
}

// newClassifier builds the classifier the workers would run with the given
// config. Without a config file the built-in tables apply.
func newClassifier(configPath string) (*classifier.Classifier, error) {
	if configPath == "" {
		return classifier.New(), nil
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return classifier.New(cfg.Classifier.Options()...), nil
}

func runAnalyze(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "Path to config file (defaults to configs/config.yaml)")
	var opts analysis.Options
	fs.Float64Var(&opts.MinSupport, "min-support", analysis.DefaultMinSupport, "Minimum share of incidents an itemset must appear in")
	fs.Float64Var(&opts.MinConfidence, "min-confidence", analysis.DefaultMinConfidence, "Minimum rule confidence")
	fs.Float64Var(&opts.MinLift, "min-lift", analysis.DefaultMinLift, "Minimum rule lift")
	fs.IntVar(&opts.TopN, "top", analysis.DefaultTopN, "Number of rules rendered as conclusions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.MinSupport > 1 || opts.MinConfidence > 1 {
		return fmt.Errorf("min-support and min-confidence must be fractions between 0 and 1")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env, err := connect(ctx, *configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	return analyze(ctx, env.store, opts, out)
}

type incidentLister interface {
	List(ctx context.Context) ([]models.Incident, error)
}

func analyze(ctx context.Context, st incidentLister, opts analysis.Options, out io.Writer) error {
	incidents, err := st.List(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis.Analyze(incidents, opts))
}

func runRegistry(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("registry", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("path", "", "Registry file to validate instead of printing the built-in registry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(registry.Default())
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	for _, a := range registry.Default().Activities {
		if _, ok := reg.Find(a.TaskType); !ok {
			return fmt.Errorf("registry %s is missing task type %s", *path, a.TaskType)
		}
	}
	fmt.Fprintf(out, "Registry %s (version %s) covers %d activities.\n", *path, reg.Version, len(reg.Activities))
	return nil
}
