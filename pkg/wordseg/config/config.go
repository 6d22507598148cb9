// Package config loads YAML run-configuration files into the typed
// settings a wordseg run needs, the same shape as
// pkg/korel/config.Loader/Components: a Loader struct whose Load
// method returns a ready-to-use Run (AGLoader: AGRun) value, so cmd/... mains
// can apply CLI flags as overrides on top of a base file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/wordseg/pkg/wordseg/hyper"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// Estimator selects the DPSEG resampling strategy (spec's
// {Flip, Viterbi, Tree, Decayed} closed family).
type Estimator string

const (
	EstimatorFlip    Estimator = "flip"
	EstimatorViterbi Estimator = "viterbi"
	EstimatorTree    Estimator = "tree"
	EstimatorDecayed Estimator = "decayed"
)

// BaseDist selects the character-level base distribution that sits
// under the lexicon's Pitman-Yor adaptor (spec glossary's closed
// family: a fixed geometric model, its non-empty variant, a
// PY-learned character or character-bigram model, or Brent's MBDP
// unigram scorer).
type BaseDist string

const (
	BaseDistGeometric         BaseDist = "geometric"
	BaseDistGeometricNonEmpty BaseDist = "geometric_nonempty"
	BaseDistLearned           BaseDist = "learned"
	BaseDistLearnedBigram     BaseDist = "learned_bigram"
	BaseDistMBDP              BaseDist = "mbdp"
)

// Mode selects batch or online operation.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeOnline Mode = "online"
)

// ForgetMethod selects how the lexicon ages out old observations.
type ForgetMethod string

const (
	ForgetUniform      ForgetMethod = "U"
	ForgetProportional ForgetMethod = "P"
)

// Run holds every setting the CLI surface (spec §6) exposes, with
// YAML tags so a base profile can be checked into a config file and
// overridden by explicit flags.
type Run struct {
	NIterations     int     `yaml:"niterations"`
	AnnealIterations int    `yaml:"anneal_iterations"`
	TempStart       float64 `yaml:"temp_start"`
	TempStop        float64 `yaml:"temp_stop"`
	ZIts            int     `yaml:"zits"`
	ZTemp           float64 `yaml:"ztemp"`

	Estimator Estimator `yaml:"estimator"`
	Mode      Mode      `yaml:"mode"`
	Ngram     int       `yaml:"ngram"`

	PYA        float64 `yaml:"pya"`
	PYB        float64 `yaml:"pyb"`
	PYABetaA   float64 `yaml:"pya_beta_a"`
	PYABetaB   float64 `yaml:"pya_beta_b"`
	PYBGammaS  float64 `yaml:"pyb_gamma_s"`
	PYBGammaC  float64 `yaml:"pyb_gamma_c"`

	ForgetRate   float64      `yaml:"forget_rate"`
	TypeMemory   int          `yaml:"type_memory"`
	TokenMemory  int          `yaml:"token_memory"`
	ForgetMethod ForgetMethod `yaml:"forget_method"`

	EvalFile     string `yaml:"eval_file"`
	EvalInterval int    `yaml:"eval_interval"`
	EvalMaximize bool   `yaml:"eval_maximize"`

	DecayRate     float64 `yaml:"decay_rate"`
	SamplesPerUtt int     `yaml:"samples_per_utt"`

	RandSeed   uint64 `yaml:"randseed"`
	TraceEvery int    `yaml:"trace_every"`

	TrainFrac float64 `yaml:"train_frac"`

	// PNL, Alphabet, and InitPBoundary parameterize the character
	// base distribution and the initial boundary vector; they are not
	// named explicitly in spec §6's CLI table but are required to
	// build a base.GeometricChar and sentence.New, so they ride along
	// on the same run-configuration file.
	PNL           float64 `yaml:"pnl"`
	Alphabet      int     `yaml:"alphabet"`
	InitPBoundary float64 `yaml:"init_pboundary"`

	// BaseDist selects which base.Dist implementation underlies the
	// lexicon (default geometric, per DefaultRun). BaseA/BaseB are the
	// discount/concentration of the character-level Pitman-Yor adaptor
	// the "learned"/"learned_bigram" variants need; they are unused by
	// the other variants.
	BaseDist BaseDist `yaml:"base_dist"`
	BaseA    float64  `yaml:"base_a"`
	BaseB    float64  `yaml:"base_b"`

	// HyperResampleEvery resamples hyperparameters once every this
	// many iterations (spec §4.11's "periodically resample
	// hyperparameters").
	HyperResampleEvery int `yaml:"hyper_resample_every"`

	// AnnealPYA is the dedicated replacement for the original tool's
	// overloaded "pya_beta_a < -1" signal (spec's Open Question); nil
	// means pya is not annealed and PYABetaA/PYABetaB are read as an
	// ordinary Beta prior.
	AnnealPYA *hyper.AnnealPYA `yaml:"anneal_pya"`
}

// DefaultRun returns a Run with the same defaults the reference runs
// ship with: unigram, batch, Viterbi estimator, a=0 b=1, T held at 1.
func DefaultRun() Run {
	return Run{
		NIterations: 1000,
		TempStart:   1,
		TempStop:    1,
		Estimator:   EstimatorViterbi,
		Mode:        ModeBatch,
		Ngram:       1,
		PYB:         1,
		TrainFrac:   1,
		TraceEvery:  1,

		PNL:                0.5,
		Alphabet:           26,
		HyperResampleEvery: 1,

		BaseDist: BaseDistGeometric,
		BaseB:    1,
	}
}

// Loader reads a Run from a YAML file, applying DefaultRun first so an
// incomplete file still produces a usable configuration.
type Loader struct {
	Path string
}

// Load reads l.Path and returns the resulting Run.
func (l *Loader) Load() (Run, error) {
	run := DefaultRun()
	if l.Path == "" {
		return run, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return run, fmt.Errorf("config: reading %s: %w", l.Path, err)
	}
	if err := yaml.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("config: parsing %s: %w", l.Path, err)
	}
	return run, nil
}

// AGRun holds every setting the adaptor-grammar CLI surface exposes,
// the AG-engine analogue of Run: a grammar file replaces the
// character-base/ngram settings, and there is no forgetting policy
// (the AG restaurant bookkeeping has no type/token memory concept).
type AGRun struct {
	GrammarFile string `yaml:"grammar_file"`
	PycacheFile string `yaml:"pycache_file"`
	OutFile     string `yaml:"out_file"`

	NIterations      int     `yaml:"niterations"`
	AnnealIterations int     `yaml:"anneal_iterations"`
	TempStart        float64 `yaml:"temp_start"`
	TempStop         float64 `yaml:"temp_stop"`
	ZIts             int     `yaml:"zits"`
	ZTemp            float64 `yaml:"ztemp"`

	DefaultA float64 `yaml:"default_a"`
	DefaultB float64 `yaml:"default_b"`

	PYABetaA  float64 `yaml:"pya_beta_a"`
	PYABetaB  float64 `yaml:"pya_beta_b"`
	PYBGammaS float64 `yaml:"pyb_gamma_s"`
	PYBGammaC float64 `yaml:"pyb_gamma_c"`

	HyperResampleEvery int `yaml:"hyper_resample_every"`

	EvalFile     string `yaml:"eval_file"`
	EvalInterval int    `yaml:"eval_interval"`

	RandSeed   uint64 `yaml:"randseed"`
	TraceEvery int    `yaml:"trace_every"`

	CompactTrees bool `yaml:"compact_trees"`

	// AnnealPYA is the same dedicated annealing override Run carries,
	// applied to every adapted grammar parent uniformly.
	AnnealPYA *hyper.AnnealPYA `yaml:"anneal_pya"`
}

// DefaultAGRun returns an AGRun with conservative defaults: no
// annealing, hyperparameters resampled every iteration, T held at 1.
func DefaultAGRun() AGRun {
	return AGRun{
		NIterations:        1000,
		TempStart:          1,
		TempStop:           1,
		DefaultA:           0,
		DefaultB:           1,
		HyperResampleEvery: 1,
		TraceEvery:         1,
	}
}

// AGLoader reads an AGRun from a YAML file, applying DefaultAGRun
// first so an incomplete file still produces a usable configuration.
type AGLoader struct {
	Path string
}

// Load reads l.Path and returns the resulting AGRun.
func (l *AGLoader) Load() (AGRun, error) {
	run := DefaultAGRun()
	if l.Path == "" {
		return run, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return run, fmt.Errorf("config: reading %s: %w", l.Path, err)
	}
	if err := yaml.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("config: parsing %s: %w", l.Path, err)
	}
	return run, nil
}

// Validate rejects configuration conflicts specific to the AG engine.
func (r AGRun) Validate() error {
	if r.GrammarFile == "" {
		return fmt.Errorf("grammar_file is required: %w", wserr.ErrConfigConflict)
	}
	if r.DefaultA < 0 || r.DefaultA > 1 {
		return fmt.Errorf("default_a=%v out of [0,1]: %w", r.DefaultA, wserr.ErrConfigConflict)
	}
	if r.DefaultB <= 0 {
		return fmt.Errorf("default_b=%v must be > 0: %w", r.DefaultB, wserr.ErrConfigConflict)
	}
	return nil
}

// Validate rejects combinations the reference tool treats as fatal
// configuration conflicts (spec §7).
func (r Run) Validate() error {
	if r.Estimator == EstimatorFlip && r.Mode == ModeOnline {
		return fmt.Errorf("flip estimator is not supported in online mode: %w", wserr.ErrConfigConflict)
	}
	if r.Estimator == EstimatorDecayed && r.Mode == ModeBatch {
		return fmt.Errorf("decayed estimator is not supported in batch mode: %w", wserr.ErrConfigConflict)
	}
	if r.TrainFrac < 0 || r.TrainFrac > 1 {
		return fmt.Errorf("train_frac=%v must be within [0,1]: %w", r.TrainFrac, wserr.ErrConfigConflict)
	}
	if r.Ngram == 2 && r.Estimator == EstimatorDecayed && r.ForgetRate != 0 {
		return fmt.Errorf("bigram decayed-MCMC does not support forget_rate: %w", wserr.ErrConfigConflict)
	}
	if r.Ngram != 1 && r.Ngram != 2 {
		return fmt.Errorf("ngram=%d must be 1 or 2: %w", r.Ngram, wserr.ErrConfigConflict)
	}
	if r.PYA < 0 || r.PYA > 1 {
		return fmt.Errorf("pya=%v out of [0,1]: %w", r.PYA, wserr.ErrConfigConflict)
	}
	if r.PYB <= 0 {
		return fmt.Errorf("pyb=%v must be > 0: %w", r.PYB, wserr.ErrConfigConflict)
	}
	if r.PNL <= 0 || r.PNL >= 1 {
		return fmt.Errorf("pnl=%v must be within (0,1): %w", r.PNL, wserr.ErrConfigConflict)
	}
	if r.Alphabet <= 1 {
		return fmt.Errorf("alphabet=%d must be > 1: %w", r.Alphabet, wserr.ErrConfigConflict)
	}
	switch r.BaseDist {
	case BaseDistGeometric, BaseDistGeometricNonEmpty, BaseDistLearned, BaseDistLearnedBigram, BaseDistMBDP:
	default:
		return fmt.Errorf("base_dist=%q is not one of the known base distributions: %w", r.BaseDist, wserr.ErrConfigConflict)
	}
	return nil
}
