package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// DefaultCombineBudget is the largest joined input, in runes, handed to a
// single CombineSummaries call before partial summaries are collapsed.
const DefaultCombineBudget = 12000

// MapReduce runs the map, collapse and reduce steps over ordered chunks.
type MapReduce struct {
	summarizer    ChunkSummarizer
	concurrency   int
	combineBudget int
}

// Option configures a MapReduce.
type Option func(*MapReduce)

// WithConcurrency bounds the number of chunks summarized at once. Values
// below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(m *MapReduce) {
		m.concurrency = max(n, 1)
	}
}

// WithCombineBudget sets the collapse threshold in runes.
func WithCombineBudget(runes int) Option {
	return func(m *MapReduce) {
		if runes > 0 {
			m.combineBudget = runes
		}
	}
}

// NewMapReduce returns a sequential pipeline over s.
func NewMapReduce(s ChunkSummarizer, opts ...Option) *MapReduce {
	m := &MapReduce{
		summarizer:    s,
		concurrency:   1,
		combineBudget: DefaultCombineBudget,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Concurrency returns the map step's parallelism.
func (m *MapReduce) Concurrency() int { return m.concurrency }

// Run summarizes chunks and returns the combined summary. The final combine
// always runs, even for a single chunk.
func (m *MapReduce) Run(ctx context.Context, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return "", jobutil.ErrEmptySource
	}

	mapStart := time.Now()
	partials, err := m.mapChunks(ctx, chunks)
	if err != nil {
		return "", err
	}
	log.Debug().
		Int("chunks", len(chunks)).
		Int("concurrency", m.concurrency).
		Dur("duration", time.Since(mapStart)).
		Msg("Map step complete")

	partials, err = m.collapse(ctx, partials)
	if err != nil {
		return "", err
	}

	summary, err := m.summarizer.CombineSummaries(ctx, partials)
	if err != nil {
		return "", fmt.Errorf("combine %d summaries: %w", len(partials), err)
	}
	return summary, nil
}

func (m *MapReduce) mapChunks(ctx context.Context, chunks []string) ([]string, error) {
	partials := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			s, err := m.summarizer.SummarizeChunk(gctx, chunk)
			if err != nil {
				return fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
			}
			partials[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

// collapse combines neighbouring partial summaries until their joined length
// fits the combine budget. A summary that alone exceeds the budget is passed
// on unchanged.
func (m *MapReduce) collapse(ctx context.Context, partials []string) ([]string, error) {
	for round := 1; joinedLen(partials) > m.combineBudget && len(partials) > 1; round++ {
		batches := batch(partials, m.combineBudget)
		if len(batches) == len(partials) {
			log.Warn().
				Int("summaries", len(partials)).
				Int("budget", m.combineBudget).
				Msg("Partial summaries exceed combine budget and cannot be collapsed further")
			break
		}

		next := make([]string, 0, len(batches))
		for _, b := range batches {
			if len(b) == 1 {
				next = append(next, b[0])
				continue
			}
			s, err := m.summarizer.CombineSummaries(ctx, b)
			if err != nil {
				return nil, fmt.Errorf("collapse round %d: %w", round, err)
			}
			next = append(next, s)
		}
		log.Debug().Int("round", round).Int("from", len(partials)).Int("to", len(next)).Msg("Collapsed partial summaries")
		partials = next
	}
	return partials, nil
}

// batch groups summaries in order so each group's joined length stays within
// budget. An oversized summary gets a group of its own.
func batch(summaries []string, budget int) [][]string {
	var (
		batches [][]string
		cur     []string
		curLen  int
	)
	for _, s := range summaries {
		n := utf8.RuneCountInString(s)
		add := n
		if len(cur) > 0 {
			add += len(summarySeparator)
		}
		if len(cur) > 0 && curLen+add > budget {
			batches = append(batches, cur)
			cur, curLen, add = nil, 0, n
		}
		cur = append(cur, s)
		curLen += add
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func joinedLen(summaries []string) int {
	return utf8.RuneCountInString(strings.Join(summaries, summarySeparator))
}
