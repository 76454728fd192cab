package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParseFailurePrefix starts the reasoning text whenever the judge's response
// held no usable score object.
const ParseFailurePrefix = "failed to parse judge response"

// excerptLimit caps the raw-response excerpt embedded in parse-failure
// reasoning.
const excerptLimit = 200

const rubric = `You are a strict grader for answers backed by a reference document.

Score the answer against the grading criteria on this scale:
- 1.0: fully satisfies the criteria
- 0.7-0.9: mostly satisfies the criteria with minor gaps
- 0.4-0.6: partially satisfies the criteria with notable gaps
- 0.1-0.3: barely addresses the criteria
- 0.0: fails or contradicts the criteria

Respond with exactly one JSON object: {"score": <number between 0 and 1>, "reasoning": "<one or two sentences>"}`

// Score is the total result of one judge call. It is produced even when the
// external response is malformed.
type Score struct {
	Key       string
	Score     float64
	Reasoning string
	// ParseOK is false when Score came from the parse-failure fallback
	// rather than a well-formed judge object.
	ParseOK bool
}

// Input carries the four prompt inputs plus an optional rubric focus line.
type Input struct {
	Key              string
	Question         string
	Answer           string
	Criteria         string
	ReferenceContent string
	// Focus narrows the rubric to one grading dimension, e.g. factual
	// consistency or coverage.
	Focus string
}

// Invoker sends rubric prompts through an injected Client.
type Invoker struct {
	client Client
}

func NewInvoker(client Client) *Invoker {
	return &Invoker{client: client}
}

// Judge grades one answer. The returned error is non-nil only for transport
// failures from the underlying client; malformed responses yield a zero
// Score with diagnostic reasoning.
func (inv *Invoker) Judge(ctx context.Context, in Input) (Score, error) {
	raw, err := inv.client.Complete(ctx, systemPrompt(in.Focus), userPrompt(in))
	if err != nil {
		return Score{}, fmt.Errorf("judge %s: %w", in.Key, err)
	}
	return parseScore(in.Key, raw), nil
}

func systemPrompt(focus string) string {
	if focus == "" {
		return rubric
	}
	return rubric + "\n\nGrading focus: " + focus
}

func userPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString("## Reference content\n")
	sb.WriteString(in.ReferenceContent)
	sb.WriteString("\n\n## Question\n")
	sb.WriteString(in.Question)
	sb.WriteString("\n\n## Answer\n")
	sb.WriteString(in.Answer)
	sb.WriteString("\n\n## Grading criteria\n")
	sb.WriteString(in.Criteria)
	sb.WriteString("\n\nGrade the answer now.")
	return sb.String()
}

// parseScore extracts the first well-formed {"score", "reasoning"} object
// found anywhere in raw. It always returns a total Score.
func parseScore(key, raw string) Score {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		var obj map[string]json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		scoreRaw, hasScore := obj["score"]
		reasonRaw, hasReason := obj["reasoning"]
		if !hasScore || !hasReason {
			continue
		}
		var reasoning string
		if err := json.Unmarshal(reasonRaw, &reasoning); err != nil {
			continue
		}
		// Non-numeric scores coerce to zero rather than failing the parse.
		var score float64
		if err := json.Unmarshal(scoreRaw, &score); err != nil {
			score = 0
		}
		return Score{Key: key, Score: Clamp(score), Reasoning: reasoning, ParseOK: true}
	}

	return Score{
		Key:       key,
		Score:     0,
		Reasoning: fmt.Sprintf("%s: %s", ParseFailurePrefix, excerpt(raw)),
	}
}

// Clamp forces v into [0,1]; NaN collapses to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func excerpt(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= excerptLimit {
		return raw
	}
	return raw[:excerptLimit] + "..."
}
