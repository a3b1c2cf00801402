package relationship

// PairKey identifies an unordered character pair. Construction canonicalizes
// ordering so (a,b) and (b,a) resolve to the same record.
type PairKey struct {
	A, B string
}

// NewPair returns the canonical key for two character ids.
func NewPair(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Contains reports whether id is one of the pair's members.
func (k PairKey) Contains(id string) bool {
	return k.A == id || k.B == id
}

// String renders the key as "a_b" for storage and the API.
func (k PairKey) String() string {
	return k.A + "_" + k.B
}
