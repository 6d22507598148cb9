// Command wordseg-dpseg runs the DPSEG unigram/bigram word-segmentation
// engine over a corpus, following the CLI surface of spec §6. It
// follows cmd/korel-analytics's shape: plain flag parsing, a
// config.Loader-style base-file-plus-overrides pattern, log.Fatal for
// CLI-level errors, no CLI framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cognicore/wordseg/pkg/wordseg/config"
	"github.com/cognicore/wordseg/pkg/wordseg/corpus"
	"github.com/cognicore/wordseg/pkg/wordseg/store"
	"github.com/cognicore/wordseg/pkg/wordseg/store/sqlite"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wordseg"

	"github.com/cognicore/wordseg/internal/trace"
)

func main() {
	var (
		configFile = flag.String("config", "", "Optional base YAML run-configuration file")
		input      = flag.String("input", "", "Path to the corpus file (required)")

		niterations      = flag.Int("niterations", 0, "Number of batch iterations (0 = use config file's value)")
		annealIterations = flag.Int("anneal-iterations", 0, "Length of the annealing window, in iterations")
		tempStart        = flag.Float64("temp-start", 0, "Annealing start temperature")
		tempStop         = flag.Float64("temp-stop", 0, "Annealing stop temperature")
		zits             = flag.Int("zits", 0, "Final iterations forced to 1/ztemp")
		ztemp            = flag.Float64("ztemp", 0, "Temperature used during the final zits iterations")

		estimator = flag.String("estimator", "", "flip|viterbi|tree|decayed")
		mode      = flag.String("mode", "", "batch|online")
		ngram     = flag.Int("ngram", 0, "1 (unigram) or 2 (bigram)")

		baseDist = flag.String("base-dist", "", "geometric|geometric_nonempty|learned|learned_bigram|mbdp")
		baseA    = flag.Float64("base-a", -1, "Discount for the learned/learned_bigram character adaptor")
		baseB    = flag.Float64("base-b", -1, "Concentration for the learned/learned_bigram character adaptor")

		pya        = flag.Float64("pya", -1, "Pitman-Yor discount")
		pyb        = flag.Float64("pyb", -1, "Pitman-Yor concentration")
		pyaBetaA   = flag.Float64("pya-beta-a", -1, "Beta prior alpha on pya")
		pyaBetaB   = flag.Float64("pya-beta-b", -1, "Beta prior beta on pya")
		pybGammaS  = flag.Float64("pyb-gamma-s", -1, "Gamma prior shape on pyb")
		pybGammaC  = flag.Float64("pyb-gamma-c", -1, "Gamma prior scale on pyb")

		forgetRate   = flag.Float64("forget-rate", -1, "Lexicon forgetting rate")
		typeMemory   = flag.Int("type-memory", -1, "Maximum distinct word types retained")
		tokenMemory  = flag.Int("token-memory", -1, "Maximum word tokens retained")
		forgetMethod = flag.String("forget-method", "", "U|P")

		evalFile     = flag.String("eval-file", "", "Held-out evaluation corpus")
		evalInterval = flag.Int("eval-interval", 0, "Evaluate every N iterations (0 disables)")
		evalMaximize = flag.Bool("eval-maximize", false, "Maximize (Viterbi) rather than sample during evaluation")

		decayRate     = flag.Float64("decay-rate", -1, "Decayed-MCMC decay exponent")
		samplesPerUtt = flag.Int("samples-per-utt", 0, "Decayed-MCMC resamples drawn per utterance")

		randSeed   = flag.Uint64("randseed", 0, "PRNG seed")
		traceEvery = flag.Int("trace-every", 0, "Write a trace row every N iterations")

		traceStore   = flag.String("trace-store", "", "Optional SQLite database path to persist iteration/evaluation history")
		output       = flag.String("output", "", "Optional path to write the final segmentation (defaults to stdout)")
		experimental = flag.Bool("experimental", false, "Parse --eval-file as an interleaved Training:/Test: 2-AFC corpus")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	loader := config.Loader{Path: *configFile}
	run, err := loader.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	applyOverrides(&run, overrideSet{
		niterations: niterations, annealIterations: annealIterations,
		tempStart: tempStart, tempStop: tempStop, zits: zits, ztemp: ztemp,
		estimator: estimator, mode: mode, ngram: ngram,
		baseDist: baseDist, baseA: baseA, baseB: baseB,
		pya: pya, pyb: pyb, pyaBetaA: pyaBetaA, pyaBetaB: pyaBetaB,
		pybGammaS: pybGammaS, pybGammaC: pybGammaC,
		forgetRate: forgetRate, typeMemory: typeMemory, tokenMemory: tokenMemory, forgetMethod: forgetMethod,
		evalInterval: evalInterval, evalMaximize: evalMaximize,
		decayRate: decayRate, samplesPerUtt: samplesPerUtt,
		randSeed: randSeed, traceEvery: traceEvery,
	})

	if err := run.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	corpusUtterances, err := readCorpus(*input)
	if err != nil {
		log.Fatalf("read corpus: %v", err)
	}

	var evalUtterances []corpus.Utterance
	var twoAFC []corpus.TwoAFCItem
	if *evalFile != "" {
		if *experimental {
			exp, err := readExperimental(*evalFile)
			if err != nil {
				log.Fatalf("read experimental eval file: %v", err)
			}
			evalUtterances, twoAFC = exp.Training, exp.Test
		} else {
			evalUtterances, err = readCorpus(*evalFile)
			if err != nil {
				log.Fatalf("read eval file: %v", err)
			}
		}
	}

	var st store.Store
	if *traceStore != "" {
		st, err = sqlite.Open(ctx, *traceStore)
		if err != nil {
			log.Fatalf("open trace store: %v", err)
		}
	}

	traceWriter := trace.New(os.Stderr, "\t")

	runner, err := wordseg.New(wordseg.Options{
		Ctx:    symtab.New(),
		Run:    run,
		Corpus: corpusUtterances,
		Eval:   evalUtterances,
		TwoAFC: twoAFC,
		Store:  st,
		Trace:  traceWriter,
	})
	if err != nil {
		log.Fatalf("initialize run: %v", err)
	}
	defer runner.Close()

	switch run.Mode {
	case config.ModeOnline:
		err = runner.TrainOnline(ctx)
	default:
		err = runner.Train(ctx)
	}
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	for _, line := range runner.Segment() {
		fmt.Fprintln(out, line)
	}
}

func readCorpus(path string) ([]corpus.Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return corpus.ReadAll(f)
}

func readExperimental(path string) (corpus.Experimental, error) {
	f, err := os.Open(path)
	if err != nil {
		return corpus.Experimental{}, err
	}
	defer f.Close()
	return corpus.NewExperimentalReader(f).ReadAll()
}

type overrideSet struct {
	niterations, annealIterations, zits                    *int
	tempStart, tempStop, ztemp                              *float64
	estimator, mode                                         *string
	ngram                                                    *int
	baseDist                                                 *string
	baseA, baseB                                             *float64
	pya, pyb, pyaBetaA, pyaBetaB, pybGammaS, pybGammaC       *float64
	forgetRate                                               *float64
	typeMemory, tokenMemory                                  *int
	forgetMethod                                             *string
	evalInterval                                             *int
	evalMaximize                                             *bool
	decayRate                                                *float64
	samplesPerUtt                                            *int
	randSeed                                                  *uint64
	traceEvery                                                *int
}

// applyOverrides copies every explicitly-set flag onto run, leaving the
// loaded base configuration (or its defaults) untouched for anything
// the user didn't pass on the command line. Flags whose zero value is
// ambiguous with "not set" (discounts, rates, counts that are
// legitimately 0) default to -1 in flag.Float64/.Int above so "not
// passed" is distinguishable from "explicitly zero".
func applyOverrides(run *config.Run, o overrideSet) {
	if *o.niterations != 0 {
		run.NIterations = *o.niterations
	}
	if *o.annealIterations != 0 {
		run.AnnealIterations = *o.annealIterations
	}
	if *o.tempStart != 0 {
		run.TempStart = *o.tempStart
	}
	if *o.tempStop != 0 {
		run.TempStop = *o.tempStop
	}
	if *o.zits != 0 {
		run.ZIts = *o.zits
	}
	if *o.ztemp != 0 {
		run.ZTemp = *o.ztemp
	}
	if *o.estimator != "" {
		run.Estimator = config.Estimator(*o.estimator)
	}
	if *o.mode != "" {
		run.Mode = config.Mode(*o.mode)
	}
	if *o.ngram != 0 {
		run.Ngram = *o.ngram
	}
	if *o.baseDist != "" {
		run.BaseDist = config.BaseDist(*o.baseDist)
	}
	if *o.baseA >= 0 {
		run.BaseA = *o.baseA
	}
	if *o.baseB >= 0 {
		run.BaseB = *o.baseB
	}
	if *o.pya >= 0 {
		run.PYA = *o.pya
	}
	if *o.pyb >= 0 {
		run.PYB = *o.pyb
	}
	if *o.pyaBetaA >= 0 {
		run.PYABetaA = *o.pyaBetaA
	}
	if *o.pyaBetaB >= 0 {
		run.PYABetaB = *o.pyaBetaB
	}
	if *o.pybGammaS >= 0 {
		run.PYBGammaS = *o.pybGammaS
	}
	if *o.pybGammaC >= 0 {
		run.PYBGammaC = *o.pybGammaC
	}
	if *o.forgetRate >= 0 {
		run.ForgetRate = *o.forgetRate
	}
	if *o.typeMemory >= 0 {
		run.TypeMemory = *o.typeMemory
	}
	if *o.tokenMemory >= 0 {
		run.TokenMemory = *o.tokenMemory
	}
	if *o.forgetMethod != "" {
		run.ForgetMethod = config.ForgetMethod(*o.forgetMethod)
	}
	if *o.evalInterval != 0 {
		run.EvalInterval = *o.evalInterval
	}
	if *o.evalMaximize {
		run.EvalMaximize = true
	}
	if *o.decayRate >= 0 {
		run.DecayRate = *o.decayRate
	}
	if *o.samplesPerUtt != 0 {
		run.SamplesPerUtt = *o.samplesPerUtt
	}
	if *o.randSeed != 0 {
		run.RandSeed = *o.randSeed
	}
	if *o.traceEvery != 0 {
		run.TraceEvery = *o.traceEvery
	}
}
