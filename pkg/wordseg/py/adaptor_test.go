package py

import "testing"

// fixedRand always returns the same draw; handy for exercising a
// specific branch of Seat/Unseat deterministically.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// constBase is a trivial Base whose predictive probability never
// changes and which records insert/erase calls.
type constBase struct {
	p               float64
	inserts, erases []string
}

func (b *constBase) P(string) float64 { return b.p }
func (b *constBase) Insert(label string) { b.inserts = append(b.inserts, label) }
func (b *constBase) Erase(label string)  { b.erases = append(b.erases, label) }

func TestAdaptorSeatOpensNewTableFirstTime(t *testing.T) {
	base := &constBase{p: 0.5}
	ad := NewAdaptor(base, 0.3, 1.0)

	ad.Seat("ab", fixedRand(0.99)) // draw near 1: always lands in the "new table" region initially

	if ad.N() != 1 || ad.M() != 1 {
		t.Fatalf("n=%d m=%d, want 1,1", ad.N(), ad.M())
	}
	if len(base.inserts) != 1 || base.inserts[0] != "ab" {
		t.Fatalf("base.inserts = %v, want [ab]", base.inserts)
	}
}

func TestAdaptorPredictIsFiniteAndPositive(t *testing.T) {
	base := &constBase{p: 0.2}
	ad := NewAdaptor(base, 0.1, 2.0)
	ad.Seat("a", fixedRand(0))
	ad.Seat("a", fixedRand(0))

	p := ad.Predict("a")
	if p <= 0 || p > 1 {
		t.Fatalf("Predict = %v, want in (0,1]", p)
	}
}

func TestAdaptorUnseatClosesLastTable(t *testing.T) {
	base := &constBase{p: 0.5}
	ad := NewAdaptor(base, 0, 1.0)
	ad.Seat("x", fixedRand(0))

	ad.Unseat("x", fixedRand(0))

	if ad.N() != 0 || ad.M() != 0 {
		t.Fatalf("n=%d m=%d, want 0,0 after closing only table", ad.N(), ad.M())
	}
	if len(base.erases) != 1 || base.erases[0] != "x" {
		t.Fatalf("base.erases = %v, want [x]", base.erases)
	}
	if _, ok := ad.tables["x"]; ok {
		t.Fatal("empty restaurant should have been deleted from the label map")
	}
}

func TestAdaptorSeatUnseatIdentity(t *testing.T) {
	base := &constBase{p: 0.4}
	ad := NewAdaptor(base, 0.2, 1.5)

	for i := 0; i < 10; i++ {
		ad.Seat("w", fixedRand(0))
	}
	n0, m0 := ad.N(), ad.M()

	ad.Unseat("w", fixedRand(0))
	ad.Seat("w", fixedRand(0))

	if ad.N() != n0 || ad.M() != m0 {
		t.Fatalf("after unseat+seat cycle: n=%d m=%d, want n=%d m=%d", ad.N(), ad.M(), n0, m0)
	}
	if err := ad.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestAdaptorLogProbFinite(t *testing.T) {
	base := &constBase{p: 0.3}
	ad := NewAdaptor(base, 0.25, 1.0)
	for i := 0; i < 5; i++ {
		ad.Seat("a", fixedRand(float64(i)/10))
		ad.Seat("b", fixedRand(float64(i)/7))
	}

	lp := ad.LogProb()
	if lp != lp { // NaN check
		t.Fatal("LogProb returned NaN")
	}
}
