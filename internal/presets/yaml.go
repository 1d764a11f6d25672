package presets

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pyramid-engine/internal/model"
)

//go:embed presets.yaml
var defaultPresetsYAML string

type presetFile struct {
	Presets []model.CountryData `yaml:"presets"`
}

// YAMLStore is a read-only preset set loaded from a YAML document.
type YAMLStore struct {
	byKey map[string]model.CountryData
}

// Default returns the presets bundled with the binary.
func Default() (*YAMLStore, error) {
	return LoadYAML(strings.NewReader(defaultPresetsYAML))
}

// LoadFile reads presets from a YAML file on disk.
func LoadFile(path string) (*YAMLStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes and validates a preset document. Names must be unique
// ignoring case.
func LoadYAML(r io.Reader) (*YAMLStore, error) {
	var doc presetFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	store := &YAMLStore{byKey: make(map[string]model.CountryData, len(doc.Presets))}
	for _, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := model.Key(p.Name)
		if _, dup := store.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		store.byKey[key] = p
	}
	return store, nil
}

func (s *YAMLStore) Get(ctx context.Context, name string) (model.CountryData, error) {
	if err := ctx.Err(); err != nil {
		return model.CountryData{}, err
	}
	p, ok := s.byKey[model.Key(name)]
	if !ok {
		return model.CountryData{}, ErrNotFound
	}
	return p, nil
}

func (s *YAMLStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.byKey))
	for key := range s.byKey {
		names = append(names, key)
	}
	sort.Strings(names)
	return names, nil
}

// All returns every preset in name order.
func (s *YAMLStore) All() []model.CountryData {
	names, _ := s.List(context.Background())
	out := make([]model.CountryData, 0, len(names))
	for _, n := range names {
		out = append(out, s.byKey[n])
	}
	return out
}
