// Package search implements computed-on-demand text and tag queries over
// note content. No separate index artifact exists; every query reads the
// store.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
)

// Store is the subset of the item store the search component depends on.
type Store interface {
	// NoteContents returns id, title and content for every note.
	NoteContents() ([]models.NoteContent, error)
	// UpdateContent persists new title/content; an empty title is re-derived
	// from the first content line.
	UpdateContent(id int64, title, content string) error
}

// Index answers text/tag queries against a Store.
type Index struct {
	store Store
}

// New creates an Index over the given store.
func New(store Store) *Index {
	return &Index{store: store}
}

// Search returns the ids of notes matching both filters. text matches as a
// case-insensitive substring of title or content; tag matches as a
// standalone #tag token in content. Empty filters match everything, so two
// empty filters return every note id.
func (ix *Index) Search(text, tag string) ([]int64, error) {
	notes, err := ix.store.NoteContents()
	if err != nil {
		return nil, fmt.Errorf("search: load notes: %w", err)
	}
	needle := strings.ToLower(text)
	var out []int64
	for _, n := range notes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}
		if tag != "" && !parser.HasTag(n.Content, tag) {
			continue
		}
		out = append(out, n.ID)
	}
	return out, nil
}

// AllTags returns the sorted union of every tag token across all notes,
// leading '#' stripped.
func (ix *Index) AllTags() ([]string, error) {
	notes, err := ix.store.NoteContents()
	if err != nil {
		return nil, fmt.Errorf("search: load notes: %w", err)
	}
	seen := make(map[string]struct{})
	for _, n := range notes {
		for _, t := range parser.Tags(n.Content) {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// RemoveTagGlobally strips the #tag token from every note containing it,
// recomputes each affected title from the new first line, and persists both.
// It returns the ids of the notes it rewrote.
func (ix *Index) RemoveTagGlobally(tag string) ([]int64, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, nil
	}
	notes, err := ix.store.NoteContents()
	if err != nil {
		return nil, fmt.Errorf("search: load notes: %w", err)
	}
	var changed []int64
	for _, n := range notes {
		if !parser.HasTag(n.Content, tag) {
			continue
		}
		newContent := parser.RemoveTag(n.Content, tag)
		// Empty title forces re-derivation from the rewritten first line.
		if err := ix.store.UpdateContent(n.ID, "", newContent); err != nil {
			return changed, fmt.Errorf("search: rewrite note %d: %w", n.ID, err)
		}
		changed = append(changed, n.ID)
	}
	return changed, nil
}
