package scoring

import (
	"fmt"
	"strings"

	"github.com/skillgauge/skillgauge/internal/models"
)

// Deterministic code-validation weights.
const (
	weightSyntax    = 0.3
	weightImports   = 0.3
	weightPatterns  = 0.2
	weightForbidden = 0.2
)

// CodeValidation is the deterministic score over a challenge answer's code.
type CodeValidation struct {
	SyntaxOK         bool
	ImportCoverage   float64
	PatternCoverage  float64
	ForbiddenAbsence float64
	Failures         []string
	Score            float64
}

// ValidateCode computes the deterministic code score: balanced-syntax check
// (30%), required-import coverage (30%), required-pattern coverage (20%),
// forbidden-pattern absence (20%). Pattern checks are literal substring
// matches; a forbidden pattern inside a comment still counts as present.
func ValidateCode(answer string, ref models.ReferenceOutputs) CodeValidation {
	v := CodeValidation{}

	code := strings.Join(extractFences(answer), "\n")
	if code == "" {
		// No fenced code: match patterns against the whole answer so
		// inline snippets still count.
		code = answer
	}

	v.SyntaxOK = balancedSyntax(code)
	if !v.SyntaxOK {
		v.Failures = append(v.Failures, "unbalanced brackets in code")
	}

	var missingImports, missingPatterns, present []string
	v.ImportCoverage, missingImports = substringCoverage(code, ref.RequiredImports)
	v.PatternCoverage, missingPatterns = substringCoverage(code, ref.RequiredPatterns)
	v.ForbiddenAbsence, present = substringAbsence(code, ref.ForbiddenPatterns)

	for _, m := range missingImports {
		v.Failures = append(v.Failures, fmt.Sprintf("missing required import: %s", m))
	}
	for _, m := range missingPatterns {
		v.Failures = append(v.Failures, fmt.Sprintf("missing required pattern: %s", m))
	}
	for _, p := range present {
		v.Failures = append(v.Failures, fmt.Sprintf("found forbidden pattern: %s", p))
	}

	syntax := 0.0
	if v.SyntaxOK {
		syntax = 1.0
	}
	v.Score = weightSyntax*syntax +
		weightImports*v.ImportCoverage +
		weightPatterns*v.PatternCoverage +
		weightForbidden*v.ForbiddenAbsence
	return v
}

// substringCoverage returns the matched fraction of needles found in code,
// plus the missing ones. An empty needle list is full coverage.
func substringCoverage(code string, needles []string) (float64, []string) {
	if len(needles) == 0 {
		return 1, nil
	}
	var missing []string
	found := 0
	for _, n := range needles {
		if strings.Contains(code, n) {
			found++
		} else {
			missing = append(missing, n)
		}
	}
	return float64(found) / float64(len(needles)), missing
}

// substringAbsence returns the fraction of needles absent from code, plus
// the ones present. An empty needle list is full absence.
func substringAbsence(code string, needles []string) (float64, []string) {
	if len(needles) == 0 {
		return 1, nil
	}
	var present []string
	absent := 0
	for _, n := range needles {
		if strings.Contains(code, n) {
			present = append(present, n)
		} else {
			absent++
		}
	}
	return float64(absent) / float64(len(needles)), present
}

// extractFences returns the contents of ``` fenced blocks in text, in order.
func extractFences(text string) []string {
	var blocks []string
	var current []string
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inFence = !inFence
			continue
		}
		if inFence {
			current = append(current, line)
		}
	}
	return blocks
}

// balancedSyntax is a language-agnostic stand-in for a syntax parse: all
// brackets must nest correctly outside of string literals.
func balancedSyntax(code string) bool {
	var stack []byte
	var quote byte
	escaped := false

	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			case '\n':
				// Unterminated single-line strings should not poison the
				// rest of the scan.
				if quote != '`' {
					quote = 0
				}
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func opener(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}
