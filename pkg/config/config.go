// Package config loads bnsearch run configuration.
//
// A configuration file is TOML or YAML, chosen by extension (.toml, .yaml,
// .yml). Values missing from the file keep their defaults, so a file only
// needs the settings it changes:
//
//	method = "ils"
//	time = "5m"
//
//	[ils]
//	perturb = 6
//
// Command-line flags override file values; the CLI applies them after Load.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/genetic"
	"github.com/matzehuels/bnsearch/pkg/search"
	"github.com/matzehuels/bnsearch/pkg/store/mongo"
	"github.com/matzehuels/bnsearch/pkg/store/redis"
)

// Methods lists the search methods a configuration may name.
var Methods = []string{"climb", "anneal", "tabu", "swaptabu", "ils", "memetic", "exhaustive"}

// Config is a complete run configuration.
type Config struct {
	Method string `toml:"method" yaml:"method"`
	// Time is a Go duration string; empty means no limit.
	Time string `toml:"time" yaml:"time"`
	Seed uint64 `toml:"seed" yaml:"seed"`
	// Optimum is a known optimal score, "stored" to use the best stored
	// result, or empty.
	Optimum string `toml:"optimum" yaml:"optimum"`

	Restarts Restarts `toml:"restarts" yaml:"restarts"`
	Climb    Climb    `toml:"climb" yaml:"climb"`
	Anneal   Anneal   `toml:"anneal" yaml:"anneal"`
	Tabu     Tabu     `toml:"tabu" yaml:"tabu"`
	SwapTabu SwapTabu `toml:"swaptabu" yaml:"swaptabu"`
	ILS      ILS      `toml:"ils" yaml:"ils"`
	Memetic  Memetic  `toml:"memetic" yaml:"memetic"`
	Store    Store    `toml:"store" yaml:"store"`
}

// Restarts controls the restart loop around climb, anneal, tabu and ILS.
type Restarts struct {
	Greediness int `toml:"greediness" yaml:"greediness"`
	MaxRuns    int `toml:"max_runs" yaml:"max_runs"` // zero runs until stopped
}

type Climb struct {
	Strategy string `toml:"strategy" yaml:"strategy"`
}

type Anneal struct {
	InitialTemp   float64 `toml:"initial_temp" yaml:"initial_temp"`
	Steps         int     `toml:"steps" yaml:"steps"`
	Decay         float64 `toml:"decay" yaml:"decay"`
	Neighbourhood string  `toml:"neighbourhood" yaml:"neighbourhood"`
}

type Tabu struct {
	ListSize int `toml:"list_size" yaml:"list_size"`
	Soft     int `toml:"soft" yaml:"soft"`
}

type SwapTabu struct {
	ListSize int    `toml:"list_size" yaml:"list_size"`
	Soft     int    `toml:"soft" yaml:"soft"`
	Memory   string `toml:"memory" yaml:"memory"`
}

type ILS struct {
	Perturb   int     `toml:"perturb" yaml:"perturb"`
	Soft      int     `toml:"soft" yaml:"soft"`
	Hard      int     `toml:"hard" yaml:"hard"`
	Tolerance float64 `toml:"tolerance" yaml:"tolerance"`
	Strategy  string  `toml:"strategy" yaml:"strategy"`
}

type Memetic struct {
	PopulationSize int     `toml:"population_size" yaml:"population_size"`
	Crossovers     int     `toml:"crossovers" yaml:"crossovers"`
	Mutations      int     `toml:"mutations" yaml:"mutations"`
	MutationPower  int     `toml:"mutation_power" yaml:"mutation_power"`
	Lookahead      int     `toml:"lookahead" yaml:"lookahead"`
	Keep           int     `toml:"keep" yaml:"keep"`
	Tolerance      float64 `toml:"tolerance" yaml:"tolerance"`
	Greediness     int     `toml:"greediness" yaml:"greediness"`
	Crossover      string  `toml:"crossover" yaml:"crossover"`
	Strategy       string  `toml:"strategy" yaml:"strategy"`
	Generations    int     `toml:"generations" yaml:"generations"`
}

// Store selects the result store backend.
type Store struct {
	Backend string       `toml:"backend" yaml:"backend"` // none, file, redis or mongo
	Dir     string       `toml:"dir" yaml:"dir"`         // file backend; empty uses the data dir
	Redis   redis.Config `toml:"redis" yaml:"redis"`
	Mongo   mongo.Config `toml:"mongo" yaml:"mongo"`
}

// Default returns the stock configuration.
func Default() Config {
	an := search.DefaultAnnealParams()
	tb := search.DefaultTabuParams()
	st := search.DefaultSwapTabuParams()
	il := search.DefaultILSParams()
	gp := genetic.DefaultParams()
	return Config{
		Method:   "ils",
		Restarts: Restarts{Greediness: 10},
		Climb:    Climb{Strategy: search.ClimbHybrid.String()},
		Anneal: Anneal{
			InitialTemp:   an.InitialTemp,
			Steps:         an.Steps,
			Decay:         an.Decay,
			Neighbourhood: string(an.Neighbourhood),
		},
		Tabu:     Tabu{ListSize: tb.ListSize, Soft: tb.Soft},
		SwapTabu: SwapTabu{ListSize: st.ListSize, Soft: st.Soft, Memory: string(st.Memory)},
		ILS: ILS{
			Perturb:   il.Perturb,
			Soft:      il.Soft,
			Hard:      il.Hard,
			Tolerance: il.Tolerance,
			Strategy:  il.Strategy.String(),
		},
		Memetic: Memetic{
			PopulationSize: gp.PopulationSize,
			Crossovers:     gp.Crossovers,
			Mutations:      gp.Mutations,
			MutationPower:  gp.MutationPower,
			Lookahead:      gp.Lookahead,
			Keep:           gp.Keep,
			Tolerance:      gp.Tolerance,
			Greediness:     gp.Greediness,
			Crossover:      "ob",
			Strategy:       gp.Strategy.String(),
		},
		Store: Store{Backend: "file"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := cfg.decode(filepath.Ext(path), data); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decode(ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
}

// TimeLimit returns the parsed time limit; zero means none.
func (c Config) TimeLimit() (time.Duration, error) {
	if c.Time == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Time)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "time limit %q", c.Time)
	}
	if d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "time limit must not be negative, got %s", c.Time)
	}
	return d, nil
}

// Validate checks every section, including those the chosen method does
// not use.
func (c Config) Validate() error {
	if !validMethod(c.Method) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown method %q (want one of %s)",
			c.Method, strings.Join(Methods, ", "))
	}
	if _, err := c.TimeLimit(); err != nil {
		return err
	}
	if c.Restarts.MaxRuns < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_runs must not be negative, got %d", c.Restarts.MaxRuns)
	}
	if _, err := c.ClimbStrategy(); err != nil {
		return err
	}
	if err := c.AnnealParams().Validate(); err != nil {
		return err
	}
	if err := c.TabuParams().Validate(); err != nil {
		return err
	}
	if err := c.SwapTabuParams().Validate(); err != nil {
		return err
	}
	ils, err := c.ILSParams()
	if err != nil {
		return err
	}
	if err := ils.Validate(); err != nil {
		return err
	}
	gp, err := c.GeneticParams()
	if err != nil {
		return err
	}
	if err := gp.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "", "none", "file":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis store needs an addr")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "mongo store needs a uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func validMethod(m string) bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

func strategy(name string) (search.Strategy, error) {
	st, err := search.ParseStrategy(name)
	if err != nil {
		return st, errors.Wrap(errors.ErrCodeInvalidConfig, err, "climb strategy")
	}
	return st, nil
}

// ClimbStrategy returns the hill-climbing strategy.
func (c Config) ClimbStrategy() (search.Strategy, error) { return strategy(c.Climb.Strategy) }

// RestartParams returns the restart settings.
func (c Config) RestartParams() search.Restarts {
	return search.Restarts{Greediness: c.Restarts.Greediness, MaxRuns: c.Restarts.MaxRuns}
}

func (c Config) AnnealParams() search.AnnealParams {
	return search.AnnealParams{
		InitialTemp:   c.Anneal.InitialTemp,
		Steps:         c.Anneal.Steps,
		Decay:         c.Anneal.Decay,
		Neighbourhood: search.Neighbourhood(c.Anneal.Neighbourhood),
	}
}

func (c Config) TabuParams() search.TabuParams {
	return search.TabuParams{ListSize: c.Tabu.ListSize, Soft: c.Tabu.Soft}
}

func (c Config) SwapTabuParams() search.SwapTabuParams {
	return search.SwapTabuParams{
		ListSize: c.SwapTabu.ListSize,
		Soft:     c.SwapTabu.Soft,
		Memory:   search.Memory(c.SwapTabu.Memory),
	}
}

func (c Config) ILSParams() (search.ILSParams, error) {
	st, err := strategy(c.ILS.Strategy)
	if err != nil {
		return search.ILSParams{}, err
	}
	return search.ILSParams{
		Perturb:   c.ILS.Perturb,
		Soft:      c.ILS.Soft,
		Hard:      c.ILS.Hard,
		Tolerance: c.ILS.Tolerance,
		Strategy:  st,
	}, nil
}

// GeneticParams returns the memetic algorithm settings.
func (c Config) GeneticParams() (genetic.Params, error) {
	st, err := strategy(c.Memetic.Strategy)
	if err != nil {
		return genetic.Params{}, err
	}
	cx, err := genetic.ParseCrossover(c.Memetic.Crossover)
	if err != nil {
		return genetic.Params{}, err
	}
	m := c.Memetic
	return genetic.Params{
		PopulationSize: m.PopulationSize,
		Crossovers:     m.Crossovers,
		Mutations:      m.Mutations,
		MutationPower:  m.MutationPower,
		Lookahead:      m.Lookahead,
		Keep:           m.Keep,
		Tolerance:      m.Tolerance,
		Greediness:     m.Greediness,
		Crossover:      cx,
		Strategy:       st,
		Generations:    m.Generations,
	}, nil
}
