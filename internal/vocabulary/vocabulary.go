// Package vocabulary manages the user-defined category labels that
// enrichment classifies albums against.
package vocabulary

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/starford/albumdex/internal/apperr"
	pkgconfig "github.com/starford/albumdex/pkg/config"
)

// Persister stores the full label list after a mutation.
type Persister interface {
	Save(labels []string) error
}

// ConfigFile persists labels under settings.user_categories of a YAML
// config file.
type ConfigFile string

// Save implements Persister.
func (f ConfigFile) Save(labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	return pkgconfig.SetValue(string(f), []string{"settings", "user_categories"}, labels)
}

// Vocabulary is an ordered set of lowercase labels.
type Vocabulary struct {
	mu      sync.RWMutex
	labels  []string
	persist Persister
}

// New builds a vocabulary from labels, normalizing and de-duplicating
// them. A nil persister keeps changes in memory only.
func New(labels []string, persist Persister) *Vocabulary {
	v := &Vocabulary{persist: persist}
	for _, l := range labels {
		if l = Normalize(l); l != "" && !slices.Contains(v.labels, l) {
			v.labels = append(v.labels, l)
		}
	}
	return v
}

// Normalize lowercases and trims a label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// List returns a copy of the labels in insertion order.
func (v *Vocabulary) List() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.labels)
}

// Contains reports whether label is in the vocabulary.
func (v *Vocabulary) Contains(label string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Contains(v.labels, Normalize(label))
}

// Add appends label. It reports false when the label already exists.
func (v *Vocabulary) Add(label string) (bool, error) {
	l := Normalize(label)
	if l == "" {
		return false, &apperr.ValidationError{Field: "category", Message: "cannot be blank"}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if slices.Contains(v.labels, l) {
		return false, nil
	}
	next := append(slices.Clone(v.labels), l)
	if err := v.save(next); err != nil {
		return false, err
	}
	v.labels = next
	return true, nil
}

// Remove deletes label. It reports false when the label was not present.
func (v *Vocabulary) Remove(label string) (bool, error) {
	l := Normalize(label)
	v.mu.Lock()
	defer v.mu.Unlock()
	i := slices.Index(v.labels, l)
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(v.labels), i, i+1)
	if err := v.save(next); err != nil {
		return false, err
	}
	v.labels = next
	return true, nil
}

func (v *Vocabulary) save(labels []string) error {
	if v.persist == nil {
		return nil
	}
	if err := v.persist.Save(labels); err != nil {
		return fmt.Errorf("vocabulary: save: %w", err)
	}
	return nil
}
