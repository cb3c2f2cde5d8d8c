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
	"fmt"
	"strconv"
	"strings"

	"github.com/crosstown/tabindex/core"
)

// Rule is a deterministic answer path: a question pattern, a metadata
// selector applied to every scanned record, and a renderer that turns the
// selected records into an exact answer. Rules are evaluated in registry
// order; the first whose pattern matches the question wins.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Pattern is matched as a case-insensitive substring of the question.
	Pattern string

	// Select reports whether a scanned record belongs to this rule.
	// Selected records become the answer's sources.
	Select func(metadata map[string]any) bool

	// Render computes the answer text from the selected records.
	Render func(selected []map[string]any) string
}

// Matches reports whether the rule's pattern appears in the question.
func (r Rule) Matches(question string) bool {
	return question != "" && strings.Contains(strings.ToLower(question), r.Pattern)
}

// DefaultRules returns the built-in aggregation rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		sumRule(
			"crimes-today",
			"total number of crimes today",
			"july_2024_crime_summary.csv",
			"col_date", "2024-07-13",
			"col_count",
			"The total number of crimes today is %d.",
		),
		sumRule(
			"traffic-accidents-today",
			"total number of traffic accidents today",
			"traffic_crash_daily_totals_july_2024.csv",
			"col_DATE", "2024-07-13",
			"col_TOTAL_CRASHES",
			"The total number of traffic accidents today is %d.",
		),
		safestLineRule(),
	}
}

// sumRule selects records from one source file on one exact column value and
// renders the sum of a numeric column into the format string.
func sumRule(name, pattern, sourceFile, filterKey, filterValue, sumKey, format string) Rule {
	return Rule{
		Name:    name,
		Pattern: pattern,
		Select: func(metadata map[string]any) bool {
			return sourceFileIs(metadata, sourceFile) &&
				metaString(metadata, filterKey) == filterValue
		},
		Render: func(selected []map[string]any) string {
			total := 0
			for _, metadata := range selected {
				total += metaInt(metadata, sumKey)
			}
			return fmt.Sprintf(format, total)
		},
	}
}

// safestLineRule selects every record of the line-counts file and reports
// the line code(s) with the fewest incidents, listing all ties.
func safestLineRule() Rule {
	return Rule{
		Name:    "safest-line",
		Pattern: "safest line in the last 7 days",
		Select: func(metadata map[string]any) bool {
			return sourceFileIs(metadata, "line_counts_last_7_days.csv")
		},
		Render: func(selected []map[string]any) string {
			if len(selected) == 0 {
				return "No data available for the safest line in the last 7 days."
			}

			min := metaInt(selected[0], "col_incident_count")
			for _, metadata := range selected[1:] {
				if count := metaInt(metadata, "col_incident_count"); count < min {
					min = count
				}
			}

			var codes []string
			for _, metadata := range selected {
				if metaInt(metadata, "col_incident_count") == min {
					code := metaString(metadata, "col_line_code")
					if code == "" {
						code = "Unknown"
					}
					codes = append(codes, code)
				}
			}

			return fmt.Sprintf("The safest line in the last 7 days is the %s with %d incidents.",
				strings.Join(codes, ", "), min)
		},
	}
}

// sourceFileIs matches the record's source file name case-insensitively.
func sourceFileIs(metadata map[string]any, name string) bool {
	return strings.EqualFold(metaString(metadata, core.MetaSourceFile), name)
}

// metaString renders a metadata value as a string; missing keys become "".
func metaString(metadata map[string]any, key string) string {
	value, ok := metadata[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// metaInt renders a metadata value as an int; missing or non-numeric values
// count as 0.
func metaInt(metadata map[string]any, key string) int {
	switch value := metadata[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
