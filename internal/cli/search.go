package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/config"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/genetic"
	"github.com/matzehuels/bnsearch/pkg/recorder"
	"github.com/matzehuels/bnsearch/pkg/rng"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/scoring"
	"github.com/matzehuels/bnsearch/pkg/search"
	"github.com/matzehuels/bnsearch/pkg/store"
)

// searchOpts holds the search command flags. Flags the user set override
// the configuration file.
type searchOpts struct {
	config     string
	method     string
	timeLimit  time.Duration
	seed       uint64
	optimum    string
	experiment string
	dump       string
	json       bool
	store      string
	tui        bool
	check      bool
	maxRuns    int
	greediness int
	runID      string
}

// searchReport is the --json output.
type searchReport struct {
	Instance string             `json:"instance"`
	Key      string             `json:"key"`
	Method   string             `json:"method"`
	Seed     uint64             `json:"seed"`
	Score    int64              `json:"score"`
	Ordering []int              `json:"ordering"`
	Optimum  *int64             `json:"optimum,omitempty"`
	Gap      *float64           `json:"gap_percent,omitempty"`
	Optimal  bool               `json:"optimal"`
	Stored   bool               `json:"stored"`
	RunID    string             `json:"run_id"`
	Elapsed  float64            `json:"elapsed_seconds"`
	Run      *recorder.Register `json:"run"`
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOpts

	cmd := &cobra.Command{
		Use:   "search [instance]",
		Short: "Search for a high-scoring variable ordering",
		Long: `Search for a high-scoring variable ordering of a candidate parent-set instance.

The instance is a file in the candidate text format, or comes from an
experiment file (--experiment) that also names the known optimum. Methods:

  climb       hill-climbing restarts
  anneal      simulated annealing restarts
  tabu        relocation tabu search restarts
  swaptabu    adjacent-swap tabu search restarts
  ils         iterated local search restarts (default)
  memetic     memetic algorithm
  exhaustive  enumerate every ordering (at most 10 variables)

Restart methods run until the time limit, --max-runs, the known optimum, or
an interrupt stops them. The best result is kept in the result store.`,
		Example: `  # Iterated local search for five minutes
  bnsearch search alarm.txt --time 5m

  # Stop as soon as the best stored score is matched
  bnsearch search alarm.txt --method memetic --optimum stored

  # Use a configuration file and follow progress in a dashboard
  bnsearch search --experiment alarm.exp --config run.toml --tui`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			path, optimum, err := opts.instance(args)
			if err != nil {
				return err
			}
			return c.runSearch(cmd, cfg, opts, path, optimum)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "configuration file (.toml, .yaml)")
	f.StringVarP(&opts.method, "method", "m", "", "search method: "+strings.Join(config.Methods, ", "))
	f.DurationVarP(&opts.timeLimit, "time", "t", 0, "time limit (e.g. 30s, 5m); 0 runs until stopped")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks one from the clock")
	f.StringVar(&opts.optimum, "optimum", "", `known optimal score, or "stored" for the best stored score`)
	f.StringVarP(&opts.experiment, "experiment", "e", "", "experiment file naming the instance and its optimum")
	f.StringVar(&opts.dump, "dump", "", "write the progress log to this file")
	f.BoolVar(&opts.json, "json", false, "print the result as JSON")
	f.StringVar(&opts.store, "store", "", "result store backend: none, file, redis, mongo")
	f.BoolVar(&opts.tui, "tui", false, "show a live dashboard")
	f.BoolVar(&opts.check, "check", false, "verify the result by rescoring it from scratch")
	f.IntVar(&opts.maxRuns, "max-runs", 0, "restart budget; 0 runs until stopped")
	f.IntVar(&opts.greediness, "greediness", 0, "restart start orderings: greedy top-k when positive, random when 0")
	f.StringVar(&opts.runID, "run-id", "", "run id recorded with the result; generated when empty")

	_ = cmd.RegisterFlagCompletionFunc("method", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.Methods, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("store", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"none", "file", "redis", "mongo"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolve loads the configuration and applies the flags the user set.
func (o *searchOpts) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("method") {
		cfg.Method = o.method
	}
	if changed("time") {
		cfg.Time = o.timeLimit.String()
	}
	if changed("seed") {
		cfg.Seed = o.seed
	}
	if changed("optimum") {
		cfg.Optimum = o.optimum
	}
	if changed("store") {
		cfg.Store.Backend = o.store
	}
	if changed("max-runs") {
		cfg.Restarts.MaxRuns = o.maxRuns
	}
	if changed("greediness") {
		cfg.Restarts.Greediness = o.greediness
	}
	return cfg, cfg.Validate()
}

// instance returns the instance path and the optimum an experiment file
// names, score.Max when unknown.
func (o *searchOpts) instance(args []string) (string, score.Score, error) {
	switch {
	case o.experiment != "" && len(args) > 0:
		return "", score.Max, errors.New(errors.ErrCodeInvalidInput, "give an instance or --experiment, not both")
	case o.experiment != "":
		exp, err := catalogue.ReadExperiment(o.experiment)
		if err != nil {
			return "", score.Max, err
		}
		return exp.Instance, exp.Optimum, nil
	case len(args) == 1:
		return args[0], score.Max, nil
	}
	return "", score.Max, errors.New(errors.ErrCodeInvalidInput, "no instance given")
}

// optimumFor resolves the configured optimum. An explicit value overrides
// the experiment's optimum.
func optimumFor(ctx context.Context, cfg config.Config, st store.Store, key string, fromExperiment score.Score) (score.Score, error) {
	switch cfg.Optimum {
	case "":
		return fromExperiment, nil
	case storedArg:
		rec, err := st.Get(ctx, key)
		if stderrors.Is(err, store.ErrNotFound) {
			return score.Max, nil
		}
		if err != nil {
			return score.Max, err
		}
		return rec.Score, nil
	}
	v, err := strconv.ParseInt(cfg.Optimum, 10, 64)
	if err != nil {
		return score.Max, errors.Wrap(errors.ErrCodeInvalidConfig, err, "optimum %q", cfg.Optimum)
	}
	return score.Score(v), nil
}

func (c *CLI) runSearch(cmd *cobra.Command, cfg config.Config, opts searchOpts, path string, expOptimum score.Score) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cat, err := c.loadInstance(ctx, path)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	optimum, err := optimumFor(ctx, cfg, st, cat.Hash(), expOptimum)
	if err != nil {
		return err
	}
	limit, _ := cfg.TimeLimit()
	source := rng.New(cfg.Seed)
	name := instanceName(path)

	var (
		dash *dashboard
		prog = newSearchProgress(logger, limit, optimum)
		sink = prog.onRecord
	)
	if opts.tui {
		dash, ctx = newDashboard(ctx, name, cfg.Method, limit, optimum)
		sink = dash.Send
	}
	recOpts := []recorder.Option{recorder.WithOnRecord(sink)}
	if opts.runID != "" {
		recOpts = append(recOpts, recorder.WithRunID(opts.runID))
	}
	reg := recorder.New(recOpts...)

	s := search.New(scoring.New(cat),
		search.WithRand(source),
		search.WithRecorder(reg),
		search.WithLogger(logger),
		search.WithTimeLimit(limit),
		search.WithOptimum(optimum),
	)
	logger.Info("Searching", "instance", name, "method", cfg.Method, "seed", source.Seed(),
		"limit", limitString(limit), "optimum", optimum)

	run := func(ctx context.Context) (search.Result, error) { return runMethod(ctx, s, cfg) }
	reg.Reset() // samples are timed from the start of the search
	var res search.Result
	if dash != nil {
		res, err = dash.Run(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return err
	}
	res = recordedBest(res, reg)
	if !opts.tui {
		prog.finish(res.Score)
	}

	// The search context may be cancelled by an interrupt; the partial
	// result is still reported and stored.
	post := context.WithoutCancel(cmd.Context())

	if opts.check {
		if err := verify(s.Evaluator(), res); err != nil {
			return err
		}
		logger.Info("Result verified")
	}

	if opts.dump != "" {
		header := fmt.Sprintf("%s %s seed=%d", name, cfg.Method, source.Seed())
		if err := reg.Dump(opts.dump, header); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write dump %s", opts.dump)
		}
		logger.Debug("Wrote progress dump", "path", opts.dump)
	}

	var stored bool
	if res.Score.Known() {
		stored, err = st.Put(post, store.Record{
			Instance:  name,
			Key:       cat.Hash(),
			Score:     res.Score,
			Ordering:  res.Ordering,
			Method:    cfg.Method,
			RunID:     reg.RunID(),
			Seed:      source.Seed(),
			Elapsed:   reg.Elapsed(),
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("Could not store result", "err", err)
		}
	}

	if opts.json {
		return writeJSON(cmd, searchReport{
			Instance: name,
			Key:      cat.Hash(),
			Method:   cfg.Method,
			Seed:     source.Seed(),
			Score:    int64(res.Score),
			Ordering: res.Ordering,
			Optimum:  knownOrNil(optimum),
			Gap:      gapOrNil(res.Score, optimum),
			Optimal:  score.IsOptimal(res.Score, optimum),
			Stored:   stored,
			RunID:    reg.RunID(),
			Elapsed:  reg.Elapsed().Seconds(),
			Run:      reg,
		})
	}

	printNewline()
	if ctx.Err() != nil {
		printWarning("Search interrupted, reporting the best result so far")
	}
	printSuccess("Best score %s", StyleNumber.Render(res.Score.String()))
	printKeyValue("Ordering", res.Ordering.String())
	printKeyValue("Gap", formatGap(res.Score, optimum))
	printKeyValue("Run", reg.RunID())
	printStats(len(reg.Samples()), len(reg.Improvements()), reg.Elapsed(), score.IsOptimal(res.Score, optimum))
	if stored {
		printDetail("New best for %s stored", name)
	}
	if opts.dump != "" {
		printFile(opts.dump)
	}
	printNewline()
	printNextStep("Inspect the network", fmt.Sprintf("bnsearch check %s stored", path))
	printNextStep("Render it", fmt.Sprintf("bnsearch render %s stored -o %s.svg", path, name))
	return nil
}

// runMethod dispatches to the configured search method.
func runMethod(ctx context.Context, s *search.Searcher, cfg config.Config) (search.Result, error) {
	rs := cfg.RestartParams()
	switch cfg.Method {
	case "climb":
		st, err := cfg.ClimbStrategy()
		if err != nil {
			return search.Result{}, err
		}
		return s.ClimbRestarts(ctx, st, rs)
	case "anneal":
		return s.AnnealRestarts(ctx, cfg.AnnealParams(), rs)
	case "tabu":
		return s.TabuRestarts(ctx, cfg.TabuParams(), rs)
	case "swaptabu":
		return s.SwapTabuRestarts(ctx, cfg.SwapTabuParams(), rs)
	case "ils":
		p, err := cfg.ILSParams()
		if err != nil {
			return search.Result{}, err
		}
		return s.ILSRestarts(ctx, p, rs)
	case "memetic":
		p, err := cfg.GeneticParams()
		if err != nil {
			return search.Result{}, err
		}
		return genetic.Run(ctx, s, p)
	case "exhaustive":
		return s.Exhaustive(ctx)
	}
	return search.Result{}, errors.New(errors.ErrCodeInvalidMethod, "unknown method %q", cfg.Method)
}

// recordedBest returns the recorder's best when a driver recorded a better
// ordering than it returned, as happens when a run is interrupted.
func recordedBest(res search.Result, reg *recorder.Register) search.Result {
	if best := reg.Best(); best < res.Score {
		return search.Result{Score: best, Ordering: reg.BestOrdering()}
	}
	return res
}

// verify rescores res from scratch and checks its network.
func verify(eval *scoring.Evaluator, res search.Result) error {
	rep, err := eval.Check(res.Ordering)
	if err != nil {
		return err
	}
	if !rep.Valid {
		return errors.New(errors.ErrCodeInfeasible, "result network has a parent after its child")
	}
	if rep.Total != res.Score {
		return errors.New(errors.ErrCodeInconsistentCache, "reported score %d, rescored %d", res.Score, rep.Total)
	}
	return nil
}

func limitString(d time.Duration) string {
	if d == 0 {
		return "none"
	}
	return d.String()
}

func knownOrNil(s score.Score) *int64 {
	if !s.Known() {
		return nil
	}
	v := int64(s)
	return &v
}

func gapOrNil(s, opt score.Score) *float64 {
	if !opt.Known() || !s.Known() || opt == 0 {
		return nil
	}
	g := score.RelativeGap(s, opt)
	return &g
}
