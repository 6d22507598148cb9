package wordseg

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/wordseg/internal/runid"
	"github.com/cognicore/wordseg/internal/trace"
	"github.com/cognicore/wordseg/pkg/wordseg/anneal"
	"github.com/cognicore/wordseg/pkg/wordseg/cky"
	"github.com/cognicore/wordseg/pkg/wordseg/config"
	"github.com/cognicore/wordseg/pkg/wordseg/corpus"
	"github.com/cognicore/wordseg/pkg/wordseg/earley"
	"github.com/cognicore/wordseg/pkg/wordseg/gfile"
	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/hyper"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
	"github.com/cognicore/wordseg/pkg/wordseg/score"
	"github.com/cognicore/wordseg/pkg/wordseg/store"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/tree"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// AGOptions configures an AGRunner.
type AGOptions struct {
	Ctx     *symtab.Ctx
	Grammar *grammar.Grammar
	Cfg     config.AGRun
	Corpus  []corpus.Utterance
	Eval    []corpus.Utterance

	Store store.Store
	RunID string
	Trace *trace.Writer
}

// agSentence is one training sentence's current accepted derivation,
// the AG engine's analogue of a sentence.Sentence's boundary vector.
type agSentence struct {
	base  symtab.Span
	terms []symtab.Symbol
	tree  tree.NodeID // 0 until the first accepted derivation

	// gold holds the gold word-boundary character offsets within base:
	// the end offset of every gold word, the last word included
	// (corpus.Utterance.ToSentence omits the last one for DPSEG).
	gold []int
}

// AGRunner owns one adaptor-grammar training run's mutable state: the
// grammar's rule table and restaurants, the arena every derivation
// tree lives in, and the per-sentence accepted analyses. It mirrors
// Runner (the DPSEG facade) in shape, substituting the CKY/MH sampler
// for DPSEG's boundary-vector sampler.
type AGRunner struct {
	ctx *symtab.Ctx
	g   *grammar.Grammar
	cfg config.AGRun
	rnd *rng.Source

	filter *earley.Filter

	// admisCache memoizes each sentence's Earley-admissible
	// span/category table, keyed by sentence index (training indices
	// >= 0, held-out indices encoded as -(j+1) so the two spaces never
	// collide): Admissible(terms) is a pure function of the grammar's
	// (fixed, built once in NewAG) unary-rule table and that sentence's
	// own terminals, so recomputing it from scratch on every one of
	// NIterations sweeps is wasted work. Bounded so a very large corpus
	// cannot pin every sentence's admissibility table in memory at
	// once.
	admisCache *lru.Cache[int, map[earley.Span]map[symtab.Symbol]bool]

	arena     *tree.Arena
	sentences []agSentence
	evalSents []agSentence

	// cachedDerivations mirrors the chart's own derivCache across
	// sentences and iterations: the facade is the only thing that
	// outlives a single Chart, so it is the natural owner of which
	// physical subtree currently represents each adapted parent's
	// cached yield, letting Sample bias toward reusing a popular
	// derivation shape instead of rebuilding it from scratch. Purely
	// an optimization hint — AdaptedParent's own restaurant, keyed by
	// yield text alone, is the actual source of truth for the CRP
	// statistics.
	cachedDerivations map[symtab.Symbol]map[string]tree.NodeID

	prior hyper.Prior
	hcfg  hyper.Config

	store store.Store
	runID string
	trace *trace.Writer
}

// NewAG builds an AGRunner from opts: interns every corpus character
// as a terminal symbol, best-effort rematerializes any pycache-loaded
// cached derivations into real trees, and builds the Earley filter
// from the grammar's own preterminal rules.
func NewAG(opts AGOptions) (*AGRunner, error) {
	if err := opts.Cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Ctx == nil || opts.Grammar == nil {
		return nil, fmt.Errorf("wordseg: AGOptions.Ctx and Grammar are required: %w", wserr.ErrMalformedInput)
	}

	r := &AGRunner{
		ctx:               opts.Ctx,
		g:                 opts.Grammar,
		cfg:               opts.Cfg,
		arena:             tree.NewArena(),
		cachedDerivations: make(map[symtab.Symbol]map[string]tree.NodeID),
		store:             opts.Store,
		runID:             opts.RunID,
		trace:             opts.Trace,
	}
	if r.runID == "" {
		r.runID = runid.New().NewID()
	}
	r.rnd = rng.New(opts.Cfg.RandSeed)
	r.prior = hyper.Prior{
		BetaAlpha:  opts.Cfg.PYABetaA,
		BetaBeta:   opts.Cfg.PYABetaB,
		GammaShape: opts.Cfg.PYBGammaS,
		GammaScale: opts.Cfg.PYBGammaC,
	}
	r.hcfg = hyper.Config{W: 1, MaxDoublings: 8}
	r.filter = earley.New(r.g, collectUnaryRules(r.g))
	cache, err := lru.New[int, map[earley.Span]map[symtab.Symbol]bool](512)
	if err != nil {
		return nil, fmt.Errorf("wordseg: building admissibility cache: %w", err)
	}
	r.admisCache = cache

	r.sentences, err = r.internSentences(opts.Corpus)
	if err != nil {
		return nil, err
	}
	r.evalSents, err = r.internSentences(opts.Eval)
	if err != nil {
		return nil, err
	}

	r.rematerializeCache()
	return r, nil
}

// collectUnaryRules gathers every length-1 RHS rule in g, the lexical
// admission table earley.New needs. Passing every such rule is
// harmless even for ones whose RHS symbol never occurs as an actual
// terminal in a given sentence: Filter only consults this table by
// position-indexed lookup against the sentence's own terminals.
func collectUnaryRules(g *grammar.Grammar) map[symtab.Symbol][]symtab.Symbol {
	out := make(map[symtab.Symbol][]symtab.Symbol)
	g.RHSTrie().ForEach(func(keys []symtab.Symbol, payload any) bool {
		if len(keys) != 1 {
			return true
		}
		parents, ok := payload.(grammar.RHSPayload)
		if !ok {
			return true
		}
		for parent := range parents {
			out[parent] = keys
		}
		return true
	})
	return out
}

// internSentences turns each utterance's text into a terminal symbol
// sequence by interning every character, appending the raw text to
// ctx for yield-text lookups.
func (r *AGRunner) internSentences(utts []corpus.Utterance) ([]agSentence, error) {
	out := make([]agSentence, 0, len(utts))
	for _, u := range utts {
		if err := u.Validate(); err != nil {
			return nil, err
		}
		base := r.ctx.Append(u.Text)
		runes := []rune(u.Text)
		terms := make([]symtab.Symbol, len(runes))
		for i, ch := range runes {
			terms[i] = r.ctx.Intern(string(ch))
		}

		gold := make([]int, 0, len(u.Words))
		pos := 0
		for _, w := range u.Words {
			pos += len([]rune(w))
			gold = append(gold, pos)
		}

		out = append(out, agSentence{base: base, terms: terms, gold: gold})
	}
	return out, nil
}

// rematerializeCache best-effort rebuilds a tree.NodeID for every
// cached yield a pycache block restored into the grammar's adapted
// parents, so the top-down sampler's reuse branch can find them from
// the very first training iteration instead of only after this run
// happens to re-derive the same yield itself. A yield that can't be
// rebuilt (e.g. the grammar changed since the cache was written) is
// simply left out of the registry — Sample then rebuilds it fresh the
// first time it's needed, a degraded but safe fallback.
func (r *AGRunner) rematerializeCache() {
	for _, parent := range r.g.AdaptedParents() {
		ap := r.g.Adapted(parent)
		ap.ForEachYield(func(yield string, _ []int) {
			base := r.ctx.Append(yield)
			runes := []rune(yield)
			terms := make([]symtab.Symbol, len(runes))
			for i, ch := range runes {
				terms[i] = r.ctx.Intern(string(ch))
			}
			chart := cky.NewChart(r.ctx, r.g, base, terms, 1.0, r.filter.Admissible(terms))
			if _, err := chart.Fill(); err != nil {
				return
			}
			id, _, err := chart.SampleCategory(parent, r.arena, r.rnd)
			if err != nil {
				return
			}
			r.registerCachedDerivation(parent, yield, id)
			addRef(r.arena, id, 1)
		})
	}
}

func (r *AGRunner) registerCachedDerivation(parent symtab.Symbol, yield string, id tree.NodeID) {
	m := r.cachedDerivations[parent]
	if m == nil {
		m = make(map[string]tree.NodeID)
		r.cachedDerivations[parent] = m
	}
	m[yield] = id
}

func (r *AGRunner) forgetCachedDerivation(parent symtab.Symbol, yield string) {
	delete(r.cachedDerivations[parent], yield)
}

// admissibleFor returns the Earley-admissible span/category table for
// the sentence at idx, computing and caching it on first use. Callers
// pass the sentence's own slice index for training sentences and its
// negative encoding (-(j+1)) for held-out sentences, so the two index
// spaces never collide in the shared cache.
func (r *AGRunner) admissibleFor(idx int, terms []symtab.Symbol) map[earley.Span]map[symtab.Symbol]bool {
	if adm, ok := r.admisCache.Get(idx); ok {
		return adm
	}
	adm := r.filter.Admissible(terms)
	r.admisCache.Add(idx, adm)
	return adm
}

func (r *AGRunner) yieldText(base symtab.Span, sp earley.Span) string {
	return r.ctx.Text(symtab.Span{Start: base.Start + sp.Left, Len: sp.Right - sp.Left})
}

// addRef adjusts every node's Count in the subtree rooted at id by
// delta, the arena-local reference count SelectiveDelete prunes
// against (spec §3's "a selective delete removes every top subtree
// whose count is zero"). This bookkeeping is independent of the
// grammar's own CRP customer counts, which are keyed by yield text
// alone and never consult tree.NodeID identity.
func addRef(arena *tree.Arena, id tree.NodeID, delta int) {
	n := arena.Node(id)
	n.Count += delta
	for _, c := range n.Children {
		addRef(arena, c, delta)
	}
}

// Train runs cfg.NIterations sweeps over the corpus: each sweep
// resamples every sentence's derivation via the MH-corrected
// propose/accept cycle (spec §4.9), periodically resamples every
// adapted parent's hyperparameters, and periodically evaluates against
// a held-out set.
func (r *AGRunner) Train(ctx context.Context) error {
	sched := anneal.Schedule{
		Mode:            anneal.Piecewise,
		Iterations:      r.cfg.AnnealIterations,
		TempStart:       r.cfg.TempStart,
		TempStop:        r.cfg.TempStop,
		ZIts:            r.cfg.ZIts,
		ZTemp:           r.cfg.ZTemp,
		TotalIterations: r.cfg.NIterations,
	}

	order := make([]int, len(r.sentences))
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
			if err := r.resampleSentence(idx, temp); err != nil {
				return err
			}
		}

		if r.cfg.HyperResampleEvery > 0 && iter%r.cfg.HyperResampleEvery == 0 {
			r.resampleHyper(iter)
		}

		ll := r.LogLikelihood()
		if err := r.recordIteration(ctx, iter, temp, ll); err != nil {
			return err
		}

		if r.cfg.EvalInterval > 0 && iter%r.cfg.EvalInterval == 0 && len(r.evalSents) > 0 {
			if err := r.Evaluate(ctx, iter); err != nil {
				return err
			}
		}
	}
	return nil
}

// resampleSentence runs one full propose/accept cycle for sentence i,
// per spec §4.9: unseat the current analysis T0, build a fresh inside
// chart over the reduced state, draw a proposal T1 with proposal mass
// r1, short-circuit on an identical shape, otherwise compute r0 (T0's
// own proposal mass under the same chart) and the true joint weights
// pi0/pi1 (by Predict-only, non-mutating walks, so the comparison
// happens before either tree is actually committed), run
// cky.Accept, and finally commit whichever tree won by actually
// seating it.
func (r *AGRunner) resampleSentence(i int, temp float64) error {
	st := &r.sentences[i]
	full := earley.Span{Left: 0, Right: len(st.terms)}

	if st.tree != 0 {
		r.unseatTree(st.base, full, r.g.Start, st.tree)
	}

	chart := cky.NewChart(r.ctx, r.g, st.base, st.terms, temp, r.admissibleFor(i, st.terms))
	for parent, byYield := range r.cachedDerivations {
		for yield, id := range byYield {
			chart.RegisterCachedDerivation(parent, yield, id)
		}
	}
	// Fill/Sample failing here means the grammar cannot derive this
	// sentence's own characters at all, a fatal condition for the
	// whole run (not just this sentence) since every subsequent
	// iteration would fail identically; T0 is left unseated and the
	// caller aborts training rather than limping on with a corrupted
	// restaurant state.
	if _, err := chart.Fill(); err != nil {
		return fmt.Errorf("wordseg: resampling sentence %d: %w", i, err)
	}

	t1, logR1, err := chart.Sample(r.arena, r.rnd)
	if err != nil {
		return fmt.Errorf("wordseg: sampling sentence %d: %w", i, err)
	}

	if st.tree == 0 {
		r.seatTree(chart, st.base, full, r.g.Start, t1, r.rnd)
		addRef(r.arena, t1, 1)
		st.tree = t1
		return nil
	}

	if cky.ShouldShortCircuit(r.arena, st.tree, t1) {
		r.seatTree(chart, st.base, full, r.g.Start, st.tree, r.rnd)
		return nil
	}

	logR0, err := chart.TreeLogProb(r.arena, st.tree, full, r.g.Start)
	if err != nil {
		return fmt.Errorf("wordseg: scoring current derivation of sentence %d: %w", i, err)
	}
	logPi0 := r.treeWeight(chart, st.base, full, r.g.Start, st.tree, nil)
	logPi1 := r.treeWeight(chart, st.base, full, r.g.Start, t1, nil)

	pi0, pi1 := math.Exp(logPi0), math.Exp(logPi1)
	r0, r1 := math.Exp(logR0), math.Exp(logR1)

	if cky.Accept(pi0, pi1, r0, r1, temp, r.rnd) {
		r.seatTree(chart, st.base, full, r.g.Start, t1, r.rnd)
		addRef(r.arena, t1, 1)
		addRef(r.arena, st.tree, -1)
		r.arena.SelectiveDelete(st.tree)
		st.tree = t1
		return nil
	}

	r.seatTree(chart, st.base, full, r.g.Start, st.tree, r.rnd)
	return nil
}

// seatTree mutates the grammar's restaurants by seating every adapted
// node of the subtree rooted at id, registering its own derivCache
// entry on a fresh table so that future charts may reuse it.
func (r *AGRunner) seatTree(chart *cky.Chart, base symtab.Span, sp earley.Span, cat symtab.Symbol, id tree.NodeID, rnd cky.Rand) {
	r.treeWeight(chart, base, sp, cat, id, rnd)
}

// treeWeight walks the subtree rooted at id, accumulating the log of
// its true joint probability under the grammar: the PCFG rule
// probability at every non-adapted node, plus the Pitman-Yor
// predictive probability at every adapted node. When rnd is non-nil
// the walk mutates state (AdaptedParent.Seat, registering new cache
// entries); when rnd is nil it only reads (AdaptedParent.Predict),
// letting a caller score pi0/pi1 before deciding which tree to keep.
func (r *AGRunner) treeWeight(chart *cky.Chart, base symtab.Span, sp earley.Span, cat symtab.Symbol, id tree.NodeID, rnd cky.Rand) float64 {
	node := r.arena.Node(id)
	logW := 0.0

	if ap := r.g.Adapted(cat); ap != nil {
		yield := r.yieldText(base, sp)
		baseP := chart.BaseMass(sp, cat)
		if rnd != nil {
			p, isNew := ap.Seat(yield, baseP, rnd)
			logW += math.Log(p)
			if isNew {
				r.registerCachedDerivation(cat, yield, id)
			}
		} else {
			logW += math.Log(ap.Predict(yield, baseP))
		}
	}

	if len(node.Children) == 0 {
		return logW
	}

	childCats := make([]symtab.Symbol, len(node.Children))
	spans := make([]earley.Span, len(node.Children))
	pos := sp.Left
	for i, ch := range node.Children {
		w := len(r.arena.TerminalYield(ch, nil))
		spans[i] = earley.Span{Left: pos, Right: pos + w}
		childCats[i] = r.arena.Node(ch).Label
		pos += w
	}
	if p, ok := r.g.RuleProb(cat, childCats); ok {
		logW += math.Log(p)
	}
	for i, ch := range node.Children {
		logW += r.treeWeight(chart, base, spans[i], childCats[i], ch, rnd)
	}
	return logW
}

// unseatTree removes every adapted node of the subtree rooted at id
// from the grammar's restaurants, the inverse of seatTree (with no
// chart-relative mass to compute, since Unseat's own formula doesn't
// need baseP). A closed table's cache entry is forgotten.
func (r *AGRunner) unseatTree(base symtab.Span, sp earley.Span, cat symtab.Symbol, id tree.NodeID) {
	node := r.arena.Node(id)
	if ap := r.g.Adapted(cat); ap != nil {
		yield := r.yieldText(base, sp)
		if ap.Unseat(yield, r.rnd) {
			r.forgetCachedDerivation(cat, yield)
		}
	}
	if len(node.Children) == 0 {
		return
	}
	pos := sp.Left
	for _, ch := range node.Children {
		w := len(r.arena.TerminalYield(ch, nil))
		childSp := earley.Span{Left: pos, Right: pos + w}
		r.unseatTree(base, childSp, r.arena.Node(ch).Label, ch)
		pos += w
	}
}

// resampleHyper resamples every adapted parent's (a,b) pair in place,
// the AG analogue of Runner.resampleHyper.
func (r *AGRunner) resampleHyper(iter int) {
	for _, parent := range r.g.AdaptedParents() {
		ap := r.g.Adapted(parent)
		resampleA := ap.A != 0 && ap.A != 1
		if r.cfg.AnnealPYA != nil {
			hyper.ResampleGrammarB(ap, r.prior, r.hcfg, r.rnd)
			ap.A = r.cfg.AnnealPYA.Value(iter)
			continue
		}
		hyper.ResampleGrammarBoth(ap, r.prior, r.hcfg, 1, r.rnd, resampleA)
	}
}

// LogLikelihood sums every adapted parent's Pitman-Yor log
// probability, the AG analogue of a lexicon's LogProb.
func (r *AGRunner) LogLikelihood() float64 {
	total := 0.0
	for _, parent := range r.g.AdaptedParents() {
		total += r.g.Adapted(parent).LogProb()
	}
	return total
}

func (r *AGRunner) recordIteration(ctx context.Context, iter int, temp, ll float64) error {
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

// segmentTree walks a derivation top-down and returns the text and
// character span of every "word": the terminal yield of the first
// adapted-parent node encountered along each path, without recursing
// further into it, since a generic grammar has no fixed notion of
// "word" the way DPSEG's boundary vector does. A leaf reached with no
// adapted ancestor anywhere on its path falls back to a single
// character, a degenerate but safe result for an entirely flat
// (non-adapted) grammar.
func (r *AGRunner) segmentTree(base symtab.Span, sp earley.Span, cat symtab.Symbol, id tree.NodeID) [][2]int {
	node := r.arena.Node(id)
	if r.g.IsAdapted(cat) || len(node.Children) == 0 {
		return [][2]int{{base.Start + sp.Left, base.Start + sp.Right}}
	}
	var out [][2]int
	pos := sp.Left
	for _, ch := range node.Children {
		w := len(r.arena.TerminalYield(ch, nil))
		childSp := earley.Span{Left: pos, Right: pos + w}
		out = append(out, r.segmentTree(base, childSp, r.arena.Node(ch).Label, ch)...)
		pos += w
	}
	return out
}

// Segment returns the current best segmentation of every training
// sentence as a space-separated line, in the same persisted-output
// format spec §6 describes for DPSEG.
func (r *AGRunner) Segment() []string {
	out := make([]string, len(r.sentences))
	for i, s := range r.sentences {
		if s.tree == 0 {
			out[i] = r.ctx.Text(s.base)
			continue
		}
		full := earley.Span{Left: 0, Right: len(s.terms)}
		spans := r.segmentTree(s.base, full, r.g.Start, s.tree)
		parts := make([]string, len(spans))
		for j, sp := range spans {
			parts[j] = r.ctx.Text(symtab.Span{Start: sp[0], Len: sp[1] - sp[0]})
		}
		out[i] = strings.Join(parts, " ")
	}
	return out
}

// Evaluate scores a frozen-grammar sampling pass over the held-out
// set: each held-out sentence is parsed and sampled once (never
// seated), scored against its gold boundaries and word spans.
func (r *AGRunner) Evaluate(ctx context.Context, iter int) error {
	var sumB float64
	var hypTypes, goldTypes []string
	var hypTokens, goldTokens [][2]int
	n := 0

	for j, s := range r.evalSents {
		full := earley.Span{Left: 0, Right: len(s.terms)}
		chart := cky.NewChart(r.ctx, r.g, s.base, s.terms, 1.0, r.admissibleFor(-(j+1), s.terms))
		if _, err := chart.Fill(); err != nil {
			continue
		}
		id, _, err := chart.Sample(r.arena, r.rnd)
		if err != nil {
			continue
		}

		hypSpans := r.segmentTree(s.base, full, r.g.Start, id)
		hyp := boundaryVector(s.base.Len, hypSpans)
		gold := boundaryVector(s.base.Len, spansFromGold(s.gold))
		sumB += score.BoundaryScore(hyp, gold).F1
		n++

		for _, sp := range hypSpans {
			hypTypes = append(hypTypes, r.ctx.Text(symtab.Span{Start: sp[0], Len: sp[1] - sp[0]}))
			hypTokens = append(hypTokens, sp)
		}
		for _, sp := range goldSpans(s.base, s.gold) {
			goldTypes = append(goldTypes, r.ctx.Text(symtab.Span{Start: sp[0], Len: sp[1] - sp[0]}))
			goldTokens = append(goldTokens, sp)
		}
	}

	tok := score.TokenScore(hypTokens, goldTokens)
	lex := score.LexiconScore(hypTypes, goldTypes)

	var avgB float64
	if n > 0 {
		avgB = sumB / float64(n)
	}

	if r.store != nil {
		return r.store.RecordEvaluation(ctx, store.EvaluationRecord{
			RunID: r.runID, Iteration: iter,
			BoundaryF1: avgB, TokenF1: tok.F1, LexiconF1: lex.F1,
			At: time.Now(),
		})
	}
	return nil
}

// spansFromGold turns a sentence-relative list of gold boundary
// offsets into single-point spans boundaryVector can consume; only
// sp[0] is read by boundaryVector, so sp[1] is a don't-care duplicate.
func spansFromGold(gold []int) [][2]int {
	out := make([][2]int, len(gold))
	for i, g := range gold {
		out[i] = [2]int{g, g}
	}
	return out
}

// goldSpans turns a sentence-relative list of gold boundary offsets
// into absolute [start,end) gold word spans, the TokenScore/
// LexiconScore analogue of corpus.Utterance.ToSentence's gold vector.
func goldSpans(base symtab.Span, gold []int) [][2]int {
	out := make([][2]int, 0, len(gold))
	pos := 0
	for _, g := range gold {
		out = append(out, [2]int{base.Start + pos, base.Start + g})
		pos = g
	}
	return out
}

// boundaryVector turns a sorted list of [start,end) character spans
// (absolute buffer offsets) into a boundary vector of length
// totalLen+1, true at position i when a word boundary falls exactly
// before buffer offset i. A nil spans list reads no boundaries at all
// except the two endpoints, which score.BoundaryScore's interior-only
// loop ignores regardless.
func boundaryVector(totalLen int, spans [][2]int) []bool {
	v := make([]bool, totalLen+1)
	v[0] = true
	v[totalLen] = true
	for _, sp := range spans {
		if sp[0] >= 0 && sp[0] <= totalLen {
			v[sp[0]] = true
		}
	}
	return v
}

// WriteGrammar writes the learned grammar and its pycache block to w
// and pw respectively, per spec §6's persisted-grammar format.
func (r *AGRunner) WriteGrammar(w, pw io.Writer) error {
	if err := gfile.WriteGrammar(r.ctx, r.g, w); err != nil {
		return err
	}
	return gfile.WritePycache(r.ctx, r.g, pw, gfile.WriteOptions{CompactTrees: r.cfg.CompactTrees})
}

// RunID reports the identifier stamping this run's store rows.
func (r *AGRunner) RunID() string { return r.runID }

// Close releases the run's store handle, if any.
func (r *AGRunner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
