// Copyright 2025 Crosstown Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crosstown/tabindex/ai"
	"github.com/crosstown/tabindex/core"
	"github.com/crosstown/tabindex/index"
)

// Qdrant caps scroll pages at 100 ids; stay just under it.
const defaultPageLimit = 99

// defaultMaxScanPages bounds the full-index scan behind aggregation rules.
// Exceeding it is an error, never a silently truncated answer.
const defaultMaxScanPages = 1000

// completionFailedAnswer is returned when the completion service fails.
// The request still succeeds; the failure is explicit in the answer text.
const completionFailedAnswer = "Error: completion service call failed."

// Result is the outcome of answering one query.
type Result struct {
	Answer  string           `json:"answer"`
	Sources []map[string]any `json:"sources"`
}

// Service answers queries against the vector index: deterministic rules
// first, similarity search with generative fallback otherwise.
type Service struct {
	idx          index.Index
	completer    ai.Completer
	rules        []Rule
	pageLimit    uint32
	maxScanPages int
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithRules replaces the default rule registry. Rules are evaluated in the
// given order.
func WithRules(rules []Rule) Option {
	return func(s *Service) error {
		s.rules = rules
		return nil
	}
}

// WithPageLimit sets the page size for full-index scans.
// Default is 99, just below the index service's maximum.
func WithPageLimit(limit uint32) Option {
	return func(s *Service) error {
		if limit < 1 {
			return fmt.Errorf("page limit must be positive")
		}
		s.pageLimit = limit
		return nil
	}
}

// WithMaxScanPages bounds how many pages a full-index scan may read before
// failing. Default is 1000.
func WithMaxScanPages(pages int) Option {
	return func(s *Service) error {
		if pages < 1 {
			return fmt.Errorf("max scan pages must be positive")
		}
		s.maxScanPages = pages
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a new retrieval service over the given index handle.
func NewService(idx index.Index, completer ai.Completer, opts ...Option) (*Service, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	s := &Service{
		idx:          idx,
		completer:    completer,
		rules:        DefaultRules(),
		pageLimit:    defaultPageLimit,
		maxScanPages: defaultMaxScanPages,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Answer resolves one query. The question routes to the first matching
// deterministic rule; questions no rule claims go through similarity search.
// Sources are the records the winning path examined.
func (s *Service) Answer(ctx context.Context, question string, vector []float32, topK int) (*Result, error) {
	if topK < 1 {
		topK = 5
	}

	for _, rule := range s.rules {
		if !rule.Matches(question) {
			continue
		}
		s.logger.Info("answering with aggregation rule", "rule", rule.Name)

		selected, err := s.scanMatching(ctx, rule.Select)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		return &Result{Answer: rule.Render(selected), Sources: selected}, nil
	}

	return s.similarityAnswer(ctx, question, vector, uint64(topK))
}

// scanMatching walks the entire index page by page and returns the metadata
// of every record the selector accepts, in listing order. Empty pages are
// skipped; the scan ends when the index reports no further offset.
func (s *Service) scanMatching(ctx context.Context, selects func(map[string]any) bool) ([]map[string]any, error) {
	selected := []map[string]any{}
	offset := ""

	for page := 0; ; page++ {
		if page >= s.maxScanPages {
			return nil, fmt.Errorf("%w: %d pages", ErrScanLimit, s.maxScanPages)
		}

		ids, next, err := s.idx.List(ctx, s.pageLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("listing index: %w", err)
		}

		if len(ids) > 0 {
			records, err := s.idx.Fetch(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("fetching records: %w", err)
			}
			for _, id := range ids {
				record, ok := records[id]
				if !ok {
					continue
				}
				if selects(record.Metadata) {
					selected = append(selected, record.Metadata)
				}
			}
		}

		if next == "" {
			return selected, nil
		}
		offset = next
	}
}

// similarityAnswer runs the similarity query and answers from the matches:
// station shortcuts when the question asks for them, completion fallback
// otherwise.
func (s *Service) similarityAnswer(ctx context.Context, question string, vector []float32, topK uint64) (*Result, error) {
	matches, err := s.idx.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	var stations []string
	contextLines := make([]string, 0, len(matches))
	sources := make([]map[string]any, 0, len(matches))

	for _, match := range matches {
		metadata := match.Metadata
		station := metaString(metadata, "col_closest_station")
		if station != "" {
			stations = append(stations, station)
		}

		contextLines = append(contextLines, fmt.Sprintf(
			"Source: %s, Row: %s, Type: %s, Date: %s, Address: %s, Closest Station: %s",
			metaString(metadata, core.MetaSourceFile),
			metaString(metadata, core.MetaRowIndex),
			metaString(metadata, "col_Incident Type"),
			metaString(metadata, "col_Date"),
			metaString(metadata, "col_Address"),
			station,
		))
		sources = append(sources, metadata)
	}

	lower := strings.ToLower(question)
	var answer string
	switch {
	case question != "" && strings.Contains(lower, "stations near") && len(stations) > 0:
		answer = fmt.Sprintf("The stations near your current location are: %s.",
			strings.Join(dedupeFirst(stations), ", "))

	case question != "" && strings.Contains(lower, "closest station") && len(stations) > 0:
		answer = fmt.Sprintf("The closest stations to your current location are: %s.",
			strings.Join(dedupeFirst(stations), ", "))

	default:
		prompt := fmt.Sprintf("Context from database:\n%s\n\nQuestion: %s\nAnswer:",
			strings.Join(contextLines, "\n"), question)

		answer, err = s.completer.Complete(ctx, prompt)
		if err != nil {
			s.logger.Error("completion failed", "err", err)
			answer = completionFailedAnswer
		}
	}

	return &Result{Answer: answer, Sources: sources}, nil
}

// dedupeFirst removes duplicates preserving first-occurrence order.
func dedupeFirst(values []string) []string {
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}
	return unique
}
