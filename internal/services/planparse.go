package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ivaaanrm/PaceUp/internal/types"
)

// Model output is free text with an embedded JSON document. Extraction walks
// three strategies in order: a fenced code block, balanced-brace matching over
// the raw text, and finally a greedy first-{-to-last-} regex that may capture
// a truncated document (the parse step catches that).
//
// Brace matching does not track string state, so a brace inside a JSON string
// value can cut the span short. Acceptable in practice: plan documents carry
// prose details, not brace-laden payloads.

var (
	fencedBlockRe   = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?)\\s*```")
	greedyObjectRe  = regexp.MustCompile(`\{[\s\S]*\}`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

const (
	insightsStartMarker = "Insights on the Objective"
	insightsEndMarker   = "Summary"
	summaryStartMarker  = "Summary of the Plan Objective"
	summaryEndMarker    = "JSON"
)

// ExtractionError means no candidate JSON span was found in the response.
type ExtractionError struct {
	ResponseLen int
	Preview     string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no JSON object found in model response (%d chars): %s", e.ResponseLen, e.Preview)
}

// ParseError means a span was found but failed to parse, even after repair.
type ParseError struct {
	Line    int
	Offset  int64
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model JSON failed to parse at line %d (offset %d): %v; near: %s", e.Line, e.Offset, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the document parsed but is not a usable plan.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid training plan document: %s", e.Reason)
}

// ParsedPlan is the structured result of pulling a plan out of raw model text.
type ParsedPlan struct {
	Insights string
	Summary  string
	Tree     types.PlanTree
	RawJSON  string
}

// ParsePlanResponse extracts, repairs, parses and validates the plan embedded
// in a model response.
func ParsePlanResponse(response string) (*ParsedPlan, error) {
	jsonText, ok := extractJSONSpan(response)
	if !ok {
		return nil, &ExtractionError{
			ResponseLen: len(response),
			Preview:     truncate(response, 200),
		}
	}

	// Models routinely emit trailing commas; strip them before parsing.
	jsonText = trailingCommaRe.ReplaceAllString(jsonText, "$1")

	var tree types.PlanTree
	dec := json.NewDecoder(strings.NewReader(jsonText))
	if err := dec.Decode(&tree); err != nil {
		offset := errorOffset(err)
		return nil, &ParseError{
			Line:    1 + strings.Count(jsonText[:clampOffset(offset, len(jsonText))], "\n"),
			Offset:  offset,
			Snippet: snippetAround(jsonText, offset),
			Err:     err,
		}
	}

	// Re-decode into a generic map to check key presence: a missing
	// "training_plan" key and an empty array both decode to a nil slice.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &probe); err == nil {
		if _, present := probe["training_plan"]; !present {
			return nil, &ValidationError{Reason: `missing "training_plan" key`}
		}
	}
	if len(tree.TrainingPlan) == 0 {
		return nil, &ValidationError{Reason: `"training_plan" holds no weeks`}
	}

	return &ParsedPlan{
		Insights: ExtractSection(response, insightsStartMarker, insightsEndMarker),
		Summary:  ExtractSection(response, summaryStartMarker, summaryEndMarker),
		Tree:     tree,
		RawJSON:  jsonText,
	}, nil
}

// extractJSONSpan finds the most plausible JSON object span in the response.
func extractJSONSpan(response string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(response); m != nil {
		// A fenced block wins outright; one that never closes its braces
		// yields no span at all rather than falling back to the raw text.
		span, ok := balancedBraces(strings.TrimSpace(m[1]))
		return span, ok
	} else if span, ok := balancedBraces(response); ok {
		return span, true
	} else if m := greedyObjectRe.FindString(response); m != "" {
		return m, true
	}
	return "", false
}

// balancedBraces returns the span from the first '{' to its matching '}'.
func balancedBraces(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ExtractSection pulls the prose between two markers, trimmed. A missing
// start marker yields ""; a missing end marker extends to end of text.
func ExtractSection(text, startMarker, endMarker string) string {
	start := strings.Index(text, startMarker)
	if start == -1 {
		return ""
	}
	start += len(startMarker)
	end := strings.Index(text[start:], endMarker)
	if end == -1 {
		end = len(text)
	} else {
		end += start
	}
	return strings.TrimSpace(text[start:end])
}

func errorOffset(err error) int64 {
	if syn, ok := err.(*json.SyntaxError); ok {
		return syn.Offset
	}
	if typ, ok := err.(*json.UnmarshalTypeError); ok {
		return typ.Offset
	}
	return 0
}

func clampOffset(offset int64, max int) int {
	if offset < 0 {
		return 0
	}
	if offset > int64(max) {
		return max
	}
	return int(offset)
}

func snippetAround(text string, offset int64) string {
	pos := clampOffset(offset, len(text))
	lo := pos - 40
	if lo < 0 {
		lo = 0
	}
	hi := pos + 40
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
