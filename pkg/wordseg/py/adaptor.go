package py

import "math"

// Base is anything that can produce a predictive probability for a
// label and absorb/release customers of its own. Character-sequence
// base distributions (package base) and the unigram lexicon acting as
// the base of a bigram lexicon both implement this.
type Base interface {
	P(label string) float64
	Insert(label string)
	Erase(label string)
}

// Rand is the minimal PRNG surface the adaptor needs: a single
// draw in [0,1). Callers pass package rng's generator; kept as an
// interface here so py has no dependency on any concrete PRNG.
type Rand interface {
	Float64() float64
}

// Adaptor is a Pitman-Yor adaptor: a label -> Restaurant map sharing a
// common base distribution, plus the two process parameters a and b.
type Adaptor struct {
	Base Base
	A    float64
	B    float64

	n       int
	m       int
	tables  map[string]*Restaurant
}

// NewAdaptor returns an adaptor with discount a, concentration b, over
// base. a must be in [0,1], b must be > 0.
func NewAdaptor(base Base, a, b float64) *Adaptor {
	return &Adaptor{
		Base:   base,
		A:      a,
		B:      b,
		tables: make(map[string]*Restaurant),
	}
}

// N reports the total number of customers seated in the adaptor.
func (ad *Adaptor) N() int { return ad.n }

// M reports the total number of occupied tables across all labels.
func (ad *Adaptor) M() int { return ad.m }

// NLabel reports the customer count for a single label (0 if unseen).
func (ad *Adaptor) NLabel(label string) int {
	r, ok := ad.tables[label]
	if !ok {
		return 0
	}
	return r.N()
}

// Predict returns the predictive probability of label under the
// current state, without mutating it:
//
//	P(v) = max(0, n_v - m_v*a)/(n+b) + (m*a+b)/(n+b) * P_base(v)
func (ad *Adaptor) Predict(label string) float64 {
	nv, mv := 0, 0
	if r, ok := ad.tables[label]; ok {
		nv, mv = r.N(), r.M()
	}
	oldTerm := math.Max(0, float64(nv)-float64(mv)*ad.A) / (float64(ad.n) + ad.B)
	newTerm := (float64(ad.m)*ad.A + ad.B) / (float64(ad.n) + ad.B) * ad.Base.P(label)
	return oldTerm + newTerm
}

// Seat draws a new customer for label, seating it at an existing or a
// brand new table, recursing into the base distribution when a new
// table is opened. It returns the predictive probability computed
// against the state *before* this customer was added.
func (ad *Adaptor) Seat(label string, rnd Rand) float64 {
	r, haveRestaurant := ad.tables[label]
	nv, mv := 0, 0
	if haveRestaurant {
		nv, mv = r.N(), r.M()
	}

	wOld := math.Max(0, float64(nv)-float64(mv)*ad.A)
	wNew := (float64(ad.m)*ad.A + ad.B) * ad.Base.P(label)
	predictive := (wOld + wNew) / (float64(ad.n) + ad.B)

	draw := rnd.Float64() * (wOld + wNew)
	if draw < wOld && haveRestaurant {
		r.SeatExistingTable(draw, ad.A)
	} else {
		if !haveRestaurant {
			r = NewRestaurant()
			ad.tables[label] = r
		}
		r.SeatNewTable()
		ad.m++
		ad.Base.Insert(label)
	}
	ad.n++
	return predictive
}

// Unseat removes one customer of label, chosen uniformly among the
// n_v customers currently seated under that label. If the departing
// customer was the last at their table, the table closes and the
// base distribution gives the label back up.
func (ad *Adaptor) Unseat(label string, rnd Rand) {
	r, ok := ad.tables[label]
	if !ok || r.N() == 0 {
		panic("py: Unseat called on a label with no customers: " + label)
	}

	draw := rnd.Float64() * float64(r.N())
	newSize := r.Unseat(draw)
	ad.n--
	if newSize == 0 {
		ad.m--
		ad.Base.Erase(label)
	}
	if r.N() == 0 {
		delete(ad.tables, label)
	}
}

// SumTableTerm returns sum_tables(lgamma(size-a) - lgamma(1-a)) over
// every occupied table, evaluated at an arbitrary candidate discount
// a rather than the adaptor's current ad.A. Used by package hyper to
// evaluate the hyperparameter log-posterior at candidate values
// without mutating the adaptor.
func (ad *Adaptor) SumTableTerm(a float64) float64 {
	total := 0.0
	for _, r := range ad.tables {
		total += r.LogProbTables(a)
	}
	return total
}

// ConcentrationTerm returns the m/a/b term of the PY log-probability
//
//	a>0: m*log(a) + lgamma(m+b/a) - lgamma(b/a)
//	a=0: m*log(b)
//
// evaluated at arbitrary candidate a, b rather than the adaptor's
// current A, B.
func (ad *Adaptor) ConcentrationTerm(a, b float64) float64 {
	m := float64(ad.m)
	if a > 0 {
		lg1, _ := math.Lgamma(m + b/a)
		lg2, _ := math.Lgamma(b / a)
		return m*math.Log(a) + lg1 - lg2
	}
	return m * math.Log(b)
}

// LogProb returns the Pitman-Yor log probability of the whole seating
// arrangement:
//
//	sum_tables(lgamma(k-a) - lgamma(1-a))
//	  + (a>0 ? m*log(a) + lgamma(m+b/a) - lgamma(b/a) : m*log(b))
//	  - (lgamma(n+b) - lgamma(b))
func (ad *Adaptor) LogProb() float64 {
	total := 0.0
	for _, r := range ad.tables {
		total += r.LogProbTables(ad.A)
	}

	if ad.A > 0 {
		lg1, _ := math.Lgamma(float64(ad.m) + ad.B/ad.A)
		lg2, _ := math.Lgamma(ad.B / ad.A)
		total += float64(ad.m)*math.Log(ad.A) + lg1 - lg2
	} else {
		total += float64(ad.m) * math.Log(ad.B)
	}

	lg3, _ := math.Lgamma(float64(ad.n) + ad.B)
	lg4, _ := math.Lgamma(ad.B)
	total -= lg3 - lg4
	return total
}

// CheckInvariants verifies sum_label n_label == n and that no empty
// restaurant is left registered under a label.
func (ad *Adaptor) CheckInvariants() error {
	sum := 0
	for label, r := range ad.tables {
		if r.N() == 0 {
			return errInvariant("empty restaurant left registered for label " + label)
		}
		if err := r.CheckInvariants(); err != nil {
			return err
		}
		sum += r.N()
	}
	if sum != ad.n {
		return errInvariant("sum of label customer counts != adaptor n")
	}
	return nil
}

// Labels returns the set of labels with at least one seated customer.
// The order is unspecified.
func (ad *Adaptor) Labels() []string {
	out := make([]string, 0, len(ad.tables))
	for label := range ad.tables {
		out = append(out, label)
	}
	return out
}
