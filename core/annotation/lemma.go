package annotation

// LemmaMapping links a word to its dictionary lemma and morphological
// analysis. Only confirmed mappings are rendered.
type LemmaMapping struct {
	Lemma    string `json:"lemma"`
	Analysis string `json:"analysis,omitempty"`
	// Normalized overrides the generated normalized level when non-empty.
	Normalized string `json:"normalized,omitempty"`
	Confirmed  bool   `json:"confirmed"`
}

// LemmaTable looks up mappings by word index.
type LemmaTable interface {
	Lookup(i int) (LemmaMapping, bool)
}

// MapTable is an in-memory LemmaTable.
type MapTable map[int]LemmaMapping

// Lookup implements LemmaTable.
func (m MapTable) Lookup(i int) (LemmaMapping, bool) {
	lm, ok := m[i]
	return lm, ok
}

// Confirmed returns the mapping for word i only if it exists and is confirmed.
func Confirmed(t LemmaTable, i int) (LemmaMapping, bool) {
	if t == nil {
		return LemmaMapping{}, false
	}
	lm, ok := t.Lookup(i)
	if !ok || !lm.Confirmed {
		return LemmaMapping{}, false
	}
	return lm, true
}
