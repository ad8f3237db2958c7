package entity

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Vellum/core/errors"
)

// registryFile is the on-disk form of an entity registry.
//
//	entities:
//	  eth: "ð"
//	  thorn: "þ"
type registryFile struct {
	Entities map[string]string `yaml:"entities"`
}

// dictionaryFile is the on-disk form of a normalization dictionary.
//
//	combining: [combacute, combmacr]
//	base_letters:
//	  inodot: i
//	substitutions:
//	  "ſ": s
type dictionaryFile struct {
	Combining     []string          `yaml:"combining"`
	BaseLetters   map[string]string `yaml:"base_letters"`
	Substitutions map[string]string `yaml:"substitutions"`
}

// ParseRegistry decodes a YAML entity registry.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		pe := errors.NewParse("entity registry", err.Error())
		pe.Err = err
		return nil, pe
	}
	r := NewRegistry()
	for name, char := range f.Entities {
		r.Add(name, char)
	}
	return r, nil
}

// LoadRegistry reads a YAML entity registry from path and merges it over
// the built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	loaded, err := ParseRegistry(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	r := DefaultRegistry()
	for _, name := range loaded.Names() {
		char, _ := loaded.Char(name)
		r.Add(name, char)
	}
	return r, nil
}

// ParseDictionary decodes a YAML normalization dictionary.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		pe := errors.NewParse("normalization dictionary", err.Error())
		pe.Err = err
		return nil, pe
	}
	d := NewDictionary()
	f.mergeInto(d)
	return d, nil
}

// LoadDictionary reads a YAML normalization dictionary from path and merges
// it over the built-in defaults.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		pe := errors.NewParse("normalization dictionary", err.Error())
		pe.Err = err
		return nil, errors.Wrapf(pe, "loading %s", path)
	}
	d := DefaultDictionary()
	f.mergeInto(d)
	return d, nil
}

func (f *dictionaryFile) mergeInto(d *Dictionary) {
	for _, name := range f.Combining {
		d.AddCombining(name)
	}
	for name, letter := range f.BaseLetters {
		d.AddBaseLetter(name, letter)
	}
	for from, to := range f.Substitutions {
		d.AddSubstitution(from, to)
	}
}
