package entity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Dictionary holds the normalization rules applied to the diplomatic and
// normalized levels: which entities are combining marks, which entities
// collapse to a base letter, and which characters or ligatures are replaced
// in normalized text.
type Dictionary struct {
	combining     map[string]bool
	baseLetters   map[string]string
	substitutions map[string]string
	// keys of substitutions, longest first
	keys []string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		combining:     make(map[string]bool),
		baseLetters:   make(map[string]string),
		substitutions: make(map[string]string),
	}
}

// DefaultDictionary returns the built-in Old Norse normalization rules.
func DefaultDictionary() *Dictionary {
	d := NewDictionary()
	for _, name := range []string{"combacute", "combgrave", "combmacr", "combdot", "combtilde"} {
		d.AddCombining(name)
	}
	d.AddBaseLetter("inodot", "i")
	d.AddBaseLetter("jnodot", "j")
	for from, to := range map[string]string{
		"ſ": "s",
		"ꝛ": "r",
		"ꝼ": "f",
		"⁊": "ok",
		"ꜳ": "á",
	} {
		d.AddSubstitution(from, to)
	}
	return d
}

// AddCombining marks an entity as a combining mark.
func (d *Dictionary) AddCombining(name string) {
	d.combining[name] = true
}

// AddBaseLetter maps an entity to the base letter it stands for.
func (d *Dictionary) AddBaseLetter(name, letter string) {
	d.baseLetters[name] = letter
}

// AddSubstitution registers a character or ligature replacement for
// normalized text.
func (d *Dictionary) AddSubstitution(from, to string) {
	if from == "" {
		return
	}
	if _, exists := d.substitutions[from]; !exists {
		d.keys = append(d.keys, from)
		sort.SliceStable(d.keys, func(i, j int) bool {
			return utf8.RuneCountInString(d.keys[i]) > utf8.RuneCountInString(d.keys[j])
		})
	}
	d.substitutions[from] = to
}

// IsCombining reports whether the named entity is a combining mark.
func (d *Dictionary) IsCombining(name string) bool {
	return d.combining[name]
}

// BaseLetter returns the base letter for an entity, if one is mapped.
func (d *Dictionary) BaseLetter(name string) (string, bool) {
	l, ok := d.baseLetters[name]
	return l, ok
}

// Substitution returns the replacement for a character or ligature.
func (d *Dictionary) Substitution(s string) (string, bool) {
	r, ok := d.substitutions[s]
	return r, ok
}

// Substitute applies the substitution table to s, preferring the longest
// matching key at each position.
func (d *Dictionary) Substitute(s string) string {
	if len(d.keys) == 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		matched := false
		for _, k := range d.keys {
			if strings.HasPrefix(s[i:], k) {
				sb.WriteString(d.substitutions[k])
				i += len(k)
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteString(s[i : i+size])
			i += size
		}
	}
	return sb.String()
}

// Normalize substitutes and then composes s to NFC so that base letters
// followed by combining marks collapse into precomposed characters.
func (d *Dictionary) Normalize(s string) string {
	return norm.NFC.String(d.Substitute(s))
}
