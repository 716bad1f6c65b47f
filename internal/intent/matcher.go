// Package intent ranks task definitions against free-text requests such as
// "make a new github repo".
package intent

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sadreammm/Helply/internal/kb"
	"github.com/sadreammm/Helply/pkg/models"
)

const (
	// DefaultTopK is the number of results returned when the caller passes 0
	DefaultTopK = 5
	// URLBonus is added when the current URL mentions the definition's platform
	URLBonus = 0.15
	// ExactTitleScore is the floor for a query equal to a definition title
	ExactTitleScore = 0.9
)

// Context is optional information about where the request was made
type Context struct {
	URL string
}

type entry struct {
	def      *models.TaskDefinition
	title    string
	tokens   map[string]struct{}
	messages []string
}

// Index is an immutable token index over a set of definitions
type Index struct {
	entries []entry
}

// NewIndex indexes the title, step messages and selector messages of defs.
// Definitions with missing fields index as empty strings and still take part.
func NewIndex(defs []*models.TaskDefinition) *Index {
	ix := &Index{entries: make([]entry, 0, len(defs))}
	for _, def := range defs {
		if def == nil {
			continue
		}
		var messages []string
		for _, step := range def.Steps {
			for _, sel := range step.Selectors {
				if sel.Message != "" {
					messages = append(messages, sel.Message)
				}
			}
			messages = append(messages, step.Message)
		}
		ix.entries = append(ix.entries, entry{
			def:      def,
			title:    strings.ToLower(strings.TrimSpace(def.Title)),
			tokens:   TokenSet(def.Title + " " + strings.Join(messages, " ")),
			messages: messages,
		})
	}
	return ix
}

// Match ranks the indexed definitions by Jaccard similarity with query and
// returns at most topK results with a positive score, best first.
func (ix *Index) Match(query string, mctx Context, topK int) []models.MatchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryTokens := TokenSet(query)
	if len(queryTokens) == 0 {
		return []models.MatchResult{}
	}
	normalized := strings.ToLower(strings.TrimSpace(query))
	url := strings.ToLower(mctx.URL)

	results := make([]models.MatchResult, 0, len(ix.entries))
	for _, e := range ix.entries {
		score := Jaccard(queryTokens, e.tokens)
		if url != "" && e.def.Platform != "" && strings.Contains(url, e.def.Platform) {
			score = math.Min(1, score+URLBonus)
		}
		if e.title != "" && normalized == e.title {
			score = math.Max(score, ExactTitleScore)
		}
		if score <= 0 {
			continue
		}

		var snippet string
		for _, msg := range e.messages {
			if sharesToken(msg, queryTokens) {
				snippet = msg
				break
			}
		}

		results = append(results, models.MatchResult{
			ActionID:   e.def.ActionID(),
			Platform:   e.def.Platform,
			Key:        e.def.Key,
			Title:      e.def.Title,
			Confidence: math.Round(score*1000) / 1000,
			Snippet:    snippet,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Source supplies the current knowledge base snapshot
type Source interface {
	Current() *kb.KB
}

type cachedIndex struct {
	kb    *kb.KB
	index *Index
}

// Matcher matches against whatever snapshot its source currently serves,
// rebuilding the index only when the snapshot changes.
type Matcher struct {
	src   Source
	cache atomic.Pointer[cachedIndex]
}

// NewMatcher creates a matcher over src
func NewMatcher(src Source) *Matcher {
	return &Matcher{src: src}
}

// Match ranks definitions for query. An empty knowledge base yields no results.
func (m *Matcher) Match(query string, mctx Context, topK int) []models.MatchResult {
	return m.index().Match(query, mctx, topK)
}

func (m *Matcher) index() *Index {
	current := m.src.Current()
	if c := m.cache.Load(); c != nil && c.kb == current {
		return c.index
	}
	ix := NewIndex(current.List())
	m.cache.Store(&cachedIndex{kb: current, index: ix})
	return ix
}
