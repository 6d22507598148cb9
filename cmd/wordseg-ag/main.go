// Command wordseg-ag runs the adaptor-grammar word-segmentation engine
// over a corpus, following the CLI surface of spec §6. It follows
// cmd/wordseg-dpseg's shape: plain flag parsing, a config.AGLoader-style
// base-file-plus-overrides pattern, log.Fatal for CLI-level errors, no
// CLI framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cognicore/wordseg/internal/trace"
	"github.com/cognicore/wordseg/pkg/wordseg/config"
	"github.com/cognicore/wordseg/pkg/wordseg/corpus"
	"github.com/cognicore/wordseg/pkg/wordseg/gfile"
	"github.com/cognicore/wordseg/pkg/wordseg/store"
	"github.com/cognicore/wordseg/pkg/wordseg/store/sqlite"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wordseg"
)

func main() {
	var (
		configFile = flag.String("config", "", "Optional base YAML run-configuration file")
		input      = flag.String("input", "", "Path to the corpus file (required)")
		grammar    = flag.String("grammar", "", "Path to the grammar rule file (required)")
		pycache    = flag.String("pycache", "", "Optional path to a pycache file seeding cached derivations")

		niterations      = flag.Int("niterations", 0, "Number of batch iterations (0 = use config file's value)")
		annealIterations = flag.Int("anneal-iterations", 0, "Length of the annealing window, in iterations")
		tempStart        = flag.Float64("temp-start", 0, "Annealing start temperature")
		tempStop         = flag.Float64("temp-stop", 0, "Annealing stop temperature")
		zits             = flag.Int("zits", 0, "Final iterations forced to 1/ztemp")
		ztemp            = flag.Float64("ztemp", 0, "Temperature used during the final zits iterations")

		defaultA = flag.Float64("default-a", -1, "Default Pitman-Yor discount recorded on the grammar (rules adapt only with an explicit a)")
		defaultB = flag.Float64("default-b", -1, "Default Pitman-Yor concentration recorded on the grammar (not applied to rules)")

		pyaBetaA  = flag.Float64("pya-beta-a", -1, "Beta prior alpha on each adapted parent's discount")
		pyaBetaB  = flag.Float64("pya-beta-b", -1, "Beta prior beta on each adapted parent's discount")
		pybGammaS = flag.Float64("pyb-gamma-s", -1, "Gamma prior shape on each adapted parent's concentration")
		pybGammaC = flag.Float64("pyb-gamma-c", -1, "Gamma prior scale on each adapted parent's concentration")

		hyperResampleEvery = flag.Int("hyper-resample-every", 0, "Resample hyperparameters every N iterations")

		evalFile     = flag.String("eval-file", "", "Held-out evaluation corpus")
		evalInterval = flag.Int("eval-interval", 0, "Evaluate every N iterations (0 disables)")

		randSeed   = flag.Uint64("randseed", 0, "PRNG seed")
		traceEvery = flag.Int("trace-every", 0, "Write a trace row every N iterations")

		compactTrees = flag.Bool("compact-trees", false, "Write pycache table-size histograms as n/m instead of per-table sizes")

		traceStore = flag.String("trace-store", "", "Optional SQLite database path to persist iteration/evaluation history")
		output     = flag.String("output", "", "Optional path to write the final segmentation (defaults to stdout)")
		grammarOut = flag.String("grammar-out", "", "Optional path to write the learned grammar rules")
		pycacheOut = flag.String("pycache-out", "", "Optional path to write the learned pycache block")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}
	if *grammar == "" {
		log.Fatal("--grammar required")
	}

	loader := config.AGLoader{Path: *configFile}
	run, err := loader.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	run.GrammarFile = *grammar
	run.PycacheFile = *pycache
	run.CompactTrees = *compactTrees

	applyAGOverrides(&run, agOverrideSet{
		niterations: niterations, annealIterations: annealIterations,
		tempStart: tempStart, tempStop: tempStop, zits: zits, ztemp: ztemp,
		defaultA: defaultA, defaultB: defaultB,
		pyaBetaA: pyaBetaA, pyaBetaB: pyaBetaB, pybGammaS: pybGammaS, pybGammaC: pybGammaC,
		hyperResampleEvery: hyperResampleEvery,
		evalInterval:       evalInterval,
		randSeed:           randSeed, traceEvery: traceEvery,
	})

	if err := run.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	symCtx := symtab.New()

	gLoader := gfile.Loader{Path: run.GrammarFile, DefaultA: run.DefaultA, DefaultB: run.DefaultB}
	g, err := gLoader.LoadFile(symCtx)
	if err != nil {
		log.Fatalf("load grammar: %v", err)
	}
	if run.PycacheFile != "" {
		f, err := os.Open(run.PycacheFile)
		if err != nil {
			log.Fatalf("open pycache: %v", err)
		}
		err = gfile.ReadPycache(symCtx, g, f)
		f.Close()
		if err != nil {
			log.Fatalf("load pycache: %v", err)
		}
	}

	corpusUtterances, err := readCorpus(*input)
	if err != nil {
		log.Fatalf("read corpus: %v", err)
	}

	var evalUtterances []corpus.Utterance
	if *evalFile != "" {
		evalUtterances, err = readCorpus(*evalFile)
		if err != nil {
			log.Fatalf("read eval file: %v", err)
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

	runner, err := wordseg.NewAG(wordseg.AGOptions{
		Ctx:     symCtx,
		Grammar: g,
		Cfg:     run,
		Corpus:  corpusUtterances,
		Eval:    evalUtterances,
		Store:   st,
		Trace:   traceWriter,
	})
	if err != nil {
		log.Fatalf("initialize run: %v", err)
	}
	defer runner.Close()

	if err := runner.Train(ctx); err != nil {
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

	if *grammarOut != "" {
		gf, err := os.Create(*grammarOut)
		if err != nil {
			log.Fatalf("create grammar-out file: %v", err)
		}
		defer gf.Close()

		pf := io.Discard
		if *pycacheOut != "" {
			pout, err := os.Create(*pycacheOut)
			if err != nil {
				log.Fatalf("create pycache-out file: %v", err)
			}
			defer pout.Close()
			pf = pout
		}
		if err := runner.WriteGrammar(gf, pf); err != nil {
			log.Fatalf("write grammar: %v", err)
		}
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

type agOverrideSet struct {
	niterations, annealIterations, zits *int
	tempStart, tempStop, ztemp          *float64
	defaultA, defaultB                  *float64
	pyaBetaA, pyaBetaB                  *float64
	pybGammaS, pybGammaC                *float64
	hyperResampleEvery                  *int
	evalInterval                        *int
	randSeed                            *uint64
	traceEvery                          *int
}

// applyAGOverrides mirrors applyOverrides in cmd/wordseg-dpseg: every
// explicitly-set flag overrides the loaded base configuration, using
// -1 as "not passed" for fields whose zero value is a legitimate
// setting.
func applyAGOverrides(run *config.AGRun, o agOverrideSet) {
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
	if *o.defaultA >= 0 {
		run.DefaultA = *o.defaultA
	}
	if *o.defaultB >= 0 {
		run.DefaultB = *o.defaultB
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
	if *o.hyperResampleEvery != 0 {
		run.HyperResampleEvery = *o.hyperResampleEvery
	}
	if *o.evalInterval != 0 {
		run.EvalInterval = *o.evalInterval
	}
	if *o.randSeed != 0 {
		run.RandSeed = *o.randSeed
	}
	if *o.traceEvery != 0 {
		run.TraceEvery = *o.traceEvery
	}
}
