// Package wordseg is the DPSEG run facade: it owns a symbol context,
// a unigram or bigram lexicon, the sentences a corpus parses into,
// and drives the train/evaluate/persist loop spec §2's data-flow
// paragraph describes ("corpus -> sentences with boundary vectors ->
// for each iteration: erase, propose, MH-accept, reseat, periodically
// resample hyperparameters, periodically evaluate"). It mirrors
// pkg/korel's Korel facade: an Options struct of already-constructed
// dependencies, a New constructor, and small methods that orchestrate
// the packages underneath rather than reimplementing them.
package wordseg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/wordseg/internal/runid"
	"github.com/cognicore/wordseg/internal/trace"
	"github.com/cognicore/wordseg/pkg/wordseg/anneal"
	"github.com/cognicore/wordseg/pkg/wordseg/base"
	"github.com/cognicore/wordseg/pkg/wordseg/config"
	"github.com/cognicore/wordseg/pkg/wordseg/corpus"
	"github.com/cognicore/wordseg/pkg/wordseg/dpseg"
	"github.com/cognicore/wordseg/pkg/wordseg/hyper"
	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/py"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
	"github.com/cognicore/wordseg/pkg/wordseg/score"
	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/store"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// bosWord is the default bigram sentence-boundary sentinel, used as
// the conditioning context for the first word of every sentence.
const bosWord = "###"

// Options configures a Runner.
type Options struct {
	Ctx    *symtab.Ctx
	Run    config.Run
	Corpus []corpus.Utterance
	Eval   []corpus.Utterance
	TwoAFC []corpus.TwoAFCItem

	// BOS overrides the bigram sentence-boundary sentinel word.
	BOS string

	Store store.Store
	RunID string
	Trace *trace.Writer
}

// Runner owns one training run's mutable state: the lexicon, the
// parsed sentences, and the PRNG stream driving every sampler.
type Runner struct {
	ctx   *symtab.Ctx
	cfg   config.Run
	rnd   *rng.Source
	uni   *lexicon.Unigram
	big   *lexicon.Bigram
	sents []*sentence.Sentence
	evalS []*sentence.Sentence
	twoAFC []corpus.TwoAFCItem
	decayed *dpseg.Decayed
	bos   string
	prior hyper.Prior
	hcfg  hyper.Config
	store store.Store
	runID string
	trace *trace.Writer
}

// newBaseDist builds the character base distribution run.BaseDist
// selects (spec glossary's closed family), under the shared PRNG rnd
// for the variants that need one.
func newBaseDist(run config.Run, rnd *rng.Source) (base.Dist, error) {
	switch run.BaseDist {
	case "", config.BaseDistGeometric:
		return base.NewGeometricChar(run.PNL, run.Alphabet, "\n"), nil
	case config.BaseDistGeometricNonEmpty:
		return base.NewGeometricCharNonEmpty(run.PNL, run.Alphabet, "\n"), nil
	case config.BaseDistLearned:
		return base.NewLearnedChar(run.PNL, "\n", run.Alphabet, run.BaseA, run.BaseB, rnd), nil
	case config.BaseDistLearnedBigram:
		return base.NewLearnedBigramChar(run.PNL, "\n", run.Alphabet, run.BaseA, run.BaseB, rnd), nil
	case config.BaseDistMBDP:
		g := base.NewGeometricChar(run.PNL, run.Alphabet, "\n")
		return base.NewMBDP(g.P), nil
	default:
		return nil, fmt.Errorf("wordseg: unknown base_dist %q: %w", run.BaseDist, wserr.ErrConfigConflict)
	}
}

// New builds a Runner from opts: the character base, the lexicon
// (unigram, or bigram sharing a unigram base per spec §4.4), and the
// corpus's sentences with their initial boundary vectors, and seats
// every sentence's initial analysis into the lexicon.
func New(opts Options) (*Runner, error) {
	if err := opts.Run.Validate(); err != nil {
		return nil, err
	}
	if opts.Ctx == nil {
		return nil, fmt.Errorf("wordseg: Options.Ctx is required: %w", wserr.ErrMalformedInput)
	}

	r := &Runner{
		ctx:   opts.Ctx,
		cfg:   opts.Run,
		bos:   opts.BOS,
		store: opts.Store,
		runID: opts.RunID,
		trace: opts.Trace,
		twoAFC: opts.TwoAFC,
	}
	if r.bos == "" {
		r.bos = bosWord
	}
	if r.runID == "" {
		r.runID = runid.New().NewID()
	}

	r.rnd = rng.New(opts.Run.RandSeed)
	charBase, err := newBaseDist(opts.Run, r.rnd)
	if err != nil {
		return nil, err
	}
	r.uni = lexicon.NewUnigram(charBase, opts.Run.PYA, opts.Run.PYB, r.rnd)
	if opts.Run.Ngram == 2 {
		r.big = lexicon.NewBigram(r.uni, opts.Run.PYA, opts.Run.PYB, r.rnd)
	}

	r.prior = hyper.Prior{
		BetaAlpha:  opts.Run.PYABetaA,
		BetaBeta:   opts.Run.PYABetaB,
		GammaShape: opts.Run.PYBGammaS,
		GammaScale: opts.Run.PYBGammaC,
	}
	r.hcfg = hyper.Config{W: 1, MaxDoublings: 8}

	coin := r.rnd.Float64
	for _, u := range opts.Corpus {
		if err := u.Validate(); err != nil {
			return nil, err
		}
		r.sents = append(r.sents, u.ToSentence(r.ctx, opts.Run.InitPBoundary, coin))
	}
	for _, u := range opts.Eval {
		r.evalS = append(r.evalS, u.ToSentence(r.ctx, opts.Run.InitPBoundary, coin))
	}

	if opts.Run.Estimator == config.EstimatorDecayed {
		r.decayed = dpseg.NewDecayed(opts.Run.DecayRate)
	}

	r.seatAll()
	return r, nil
}

func (r *Runner) seatAll() {
	for _, s := range r.sents {
		if r.big != nil {
			s.InsertWordsBigram(r.ctx, r.big, r.bos)
		} else {
			s.InsertWords(r.ctx, r.uni)
		}
	}
}

// pContinue is the prior probability a sentence continues after a
// word (spec §4.8's flip-sampler P_continue), taken as the complement
// of the character base's end-of-utterance stop probability: a
// sentence that hasn't hit the sentinel yet is, by the same geometric
// logic the base distribution uses for a word's length, "continuing".
func (r *Runner) pContinue() float64 { return 1 - r.cfg.PNL }

// Train runs cfg.NIterations batch sweeps over the corpus (spec §2's
// batch data flow), resampling hyperparameters and evaluating on the
// configured cadence. Estimator must not be EstimatorDecayed; use
// TrainOnline for that (spec §7's flip+online / decayed+batch
// conflicts are already rejected at config.Validate time, but
// decayed also requires the online-only code path, not this one).
func (r *Runner) Train(ctx context.Context) error {
	if r.cfg.Estimator == config.EstimatorDecayed {
		return fmt.Errorf("wordseg: decayed estimator requires TrainOnline: %w", wserr.ErrConfigConflict)
	}

	sched := anneal.Schedule{
		Mode:            anneal.Piecewise,
		Iterations:      r.cfg.AnnealIterations,
		TempStart:       r.cfg.TempStart,
		TempStop:        r.cfg.TempStop,
		ZIts:            r.cfg.ZIts,
		ZTemp:           r.cfg.ZTemp,
		TotalIterations: r.cfg.NIterations,
	}

	order := make([]int, len(r.sents))
	for i := range order {
		order[i] = i
	}

	for iter := 0; iter < r.cfg.NIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		temp := sched.Temperature(iter)
		r.rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, idx := range order {
			r.resampleSentence(r.sents[idx], temp)
		}

		if r.cfg.HyperResampleEvery > 0 && iter%r.cfg.HyperResampleEvery == 0 {
			r.resampleHyper(iter)
		}

		ll := r.LogLikelihood()
		if err := r.recordIteration(ctx, iter, temp, ll); err != nil {
			return err
		}

		if r.cfg.EvalInterval > 0 && iter%r.cfg.EvalInterval == 0 && len(r.evalS) > 0 {
			if err := r.Evaluate(ctx, iter); err != nil {
				return err
			}
		}
	}
	return nil
}

// resampleSentence applies one estimator-specific update to s at the
// given temperature. Flip mutates the lexicon boundary-by-boundary
// internally; tree and Viterbi need the sentence's words unseated
// first since they rebuild the whole segmentation from Predict calls
// alone and the caller reseats the result.
func (r *Runner) resampleSentence(s *sentence.Sentence, temp float64) {
	switch r.cfg.Estimator {
	case config.EstimatorFlip:
		if r.big != nil {
			dpseg.SweepBigram(r.ctx, s, r.big, r.bos, temp, r.rnd)
		} else {
			dpseg.SweepUnigram(r.ctx, s, r.uni, r.pContinue(), temp, r.rnd)
		}
	case config.EstimatorTree:
		if r.big != nil {
			s.EraseWordsBigram(r.ctx, r.big, r.bos)
			dpseg.TreeBigram(r.ctx, s, r.big, r.bos, temp, r.rnd)
			s.InsertWordsBigram(r.ctx, r.big, r.bos)
		} else {
			s.EraseWords(r.ctx, r.uni)
			dpseg.TreeUnigram(r.ctx, s, r.uni, r.pContinue(), temp, r.rnd)
			s.InsertWords(r.ctx, r.uni)
		}
	case config.EstimatorViterbi:
		if r.big != nil {
			s.EraseWordsBigram(r.ctx, r.big, r.bos)
			dpseg.ViterbiBigram(r.ctx, s, r.big, r.bos, temp)
			s.InsertWordsBigram(r.ctx, r.big, r.bos)
		} else {
			s.EraseWords(r.ctx, r.uni)
			dpseg.ViterbiUnigram(r.ctx, s, r.uni, r.pContinue(), temp)
			s.InsertWords(r.ctx, r.uni)
		}
	}
}

// TrainOnline runs the decayed-MCMC online mode (spec §4.8): sentences
// are seen one at a time, each immediately seated, and each triggers
// samplesPerUtt resamples drawn from the whole history seen so far.
// Only the unigram model is supported, per the Open Question recorded
// in DESIGN.md (the original does not exercise bigram decayed-MCMC
// either).
func (r *Runner) TrainOnline(ctx context.Context) error {
	if r.cfg.Estimator != config.EstimatorDecayed {
		return fmt.Errorf("wordseg: TrainOnline requires the decayed estimator: %w", wserr.ErrConfigConflict)
	}
	if r.big != nil {
		return fmt.Errorf("wordseg: decayed-MCMC is only implemented for the unigram model: %w", wserr.ErrConfigConflict)
	}

	lookup := func(idx int) *sentence.Sentence {
		if idx < 0 || idx >= len(r.sents) {
			return nil
		}
		return r.sents[idx]
	}

	for idx, s := range r.sents {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.decayed.Observe(idx, s.Possible)
		r.decayed.SampleOnce(r.ctx, lookup, r.uni, r.pContinue(), r.cfg.TempStart, r.cfg.SamplesPerUtt, r.rnd)

		ll := r.uni.LogProb()
		if err := r.recordIteration(ctx, idx, r.cfg.TempStart, ll); err != nil {
			return err
		}
		if r.cfg.EvalInterval > 0 && idx%r.cfg.EvalInterval == 0 && len(r.evalS) > 0 {
			if err := r.Evaluate(ctx, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

// resampleHyper resamples every adaptor's (a,b) pair in place: the
// shared unigram adaptor, and, for a bigram model, every live
// per-context adaptor as well (spec §4.4's "all such PYAdaptors share
// the same unigram lexicon as their base" still leaves each context's
// own discount/concentration independently resampled). When
// cfg.AnnealPYA is set it overrides ResampleA with the annealed
// discount instead (the dedicated replacement for the original tool's
// overloaded pya_beta_a<-1 signal, recorded as an Open Question
// decision in DESIGN.md).
func (r *Runner) resampleHyper(iter int) {
	resampleA := r.cfg.PYA != 0 && r.cfg.PYA != 1

	adaptors := []*py.Adaptor{r.uni.Adaptor()}
	if r.big != nil {
		adaptors = append(adaptors, r.big.Contexts()...)
	}

	for _, ad := range adaptors {
		if r.cfg.AnnealPYA != nil {
			hyper.ResampleB(ad, r.prior, r.hcfg, r.rnd)
			ad.A = r.cfg.AnnealPYA.Value(iter)
			continue
		}
		hyper.ResampleBoth(ad, r.prior, r.hcfg, 1, r.rnd, resampleA)
	}
}

// LogLikelihood returns the current Pitman-Yor log probability of the
// whole lexicon state (unigram, or unigram+every bigram context).
func (r *Runner) LogLikelihood() float64 {
	if r.big != nil {
		return r.big.LogProb()
	}
	return r.uni.LogProb()
}

func (r *Runner) recordIteration(ctx context.Context, iter int, temp, ll float64) error {
	if r.trace != nil {
		if err := r.trace.Row(iter, temp, ll); err != nil {
			return err
		}
	}
	if r.store != nil {
		return r.store.RecordIteration(ctx, store.IterationRecord{
			RunID: r.runID, Iteration: iter, Temperature: temp, LogLikelihood: ll, At: time.Now(),
		})
	}
	return nil
}

// Evaluate scores a frozen-lexicon Viterbi pass over the held-out set
// (spec §2: "periodically evaluate on a held-out set by a single
// maximization or sampling pass with the lexicon frozen against
// updates"): ViterbiUnigram/ViterbiBigram only call Predict, never
// Seat/Unseat, so the training lexicon is untouched by evaluation.
func (r *Runner) Evaluate(ctx context.Context, iter int) error {
	var sumB, sumT, sumL float64
	var hypTypes, goldTypes []string
	var hypTokens, goldTokens [][2]int
	n := 0

	for _, s := range r.evalS {
		if r.big != nil {
			dpseg.ViterbiBigram(r.ctx, s, r.big, r.bos, 1)
		} else {
			dpseg.ViterbiUnigram(r.ctx, s, r.uni, r.pContinue(), 1)
		}

		gold := goldBoundaryVector(s)
		sumB += score.BoundaryScore(s.Boundary, gold).F1
		n++

		for _, w := range s.Words() {
			text := r.ctx.Text(w)
			hypTypes = append(hypTypes, text)
			hypTokens = append(hypTokens, [2]int{w.Start, w.End()})
		}

		prev := 0
		for _, g := range append(s.True, len(s.Boundary)-1) {
			w := symtab.Span{Start: s.Span.Start + prev, Len: g - prev}
			goldTypes = append(goldTypes, r.ctx.Text(w))
			goldTokens = append(goldTokens, [2]int{w.Start, w.End()})
			prev = g
		}
	}

	tok := score.TokenScore(hypTokens, goldTokens)
	lex := score.LexiconScore(hypTypes, goldTypes)
	sumT = tok.F1
	sumL = lex.F1

	var avgB float64
	if n > 0 {
		avgB = sumB / float64(n)
	}

	var twoAFC float64
	if len(r.twoAFC) > 0 {
		pairs := make([][2]string, len(r.twoAFC))
		for i, it := range r.twoAFC {
			pairs[i] = [2]string{it.WordA, it.WordB}
		}
		predict := func(word string) float64 {
			if r.big != nil {
				return r.big.Unigram().Predict(word)
			}
			return r.uni.Predict(word)
		}
		twoAFC = score.TwoAFCScore(pairs, predict).Accuracy()
	}

	if r.store != nil {
		return r.store.RecordEvaluation(ctx, store.EvaluationRecord{
			RunID: r.runID, Iteration: iter,
			BoundaryF1: avgB, TokenF1: sumT, LexiconF1: sumL, TwoAFCScore: twoAFC,
			At: time.Now(),
		})
	}
	return nil
}

func goldBoundaryVector(s *sentence.Sentence) []bool {
	b := make([]bool, len(s.Boundary))
	b[0] = true
	if len(b) > 1 {
		b[1] = true
		b[len(b)-2] = true
	}
	b[len(b)-1] = true
	for _, g := range s.True {
		b[g] = true
	}
	return b
}

// Segment returns the current best segmentation of every training
// sentence as a space-separated line, the persisted-output format
// spec §6 describes.
func (r *Runner) Segment() []string {
	out := make([]string, len(r.sents))
	for i, s := range r.sents {
		words := s.Words()
		parts := make([]string, len(words))
		for j, w := range words {
			parts[j] = r.ctx.Text(w)
		}
		out[i] = strings.Join(parts, " ")
	}
	return out
}

// RunID reports the identifier stamping this run's store rows.
func (r *Runner) RunID() string { return r.runID }

// Close releases the run's store handle, if any.
func (r *Runner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
