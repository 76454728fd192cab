// Package checks runs the deterministic structural checks over a skill
// artifact and reports pass/fail plus depth metrics.
package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skillgauge/skillgauge/internal/skill"
)

// OverviewMinWords is the depth-check floor for the Overview section.
const OverviewMinWords = 50

// StructureResult is the outcome of one structural validation. The boolean
// flags mirror the required checks; the depth metrics are reported but never
// affect Pass.
type StructureResult struct {
	HasFrontmatter bool
	HasName        bool
	HasDescription bool
	HasLanguage    bool

	HasOverview  bool
	HasExamples  bool
	HasBoundary  bool
	HasGotchas   bool
	HasDocLinks  bool
	HasCodeBlock bool

	CodeBlocksUseCorrectLanguage bool
	NoEmptySections              bool

	// Failures lists one message per violated required check, in check order.
	Failures []string

	// Depth metrics.
	OverviewWords    int
	OverviewMinWords bool
	CodeBlockCount   int
	HasDecisionTable bool
	AllLinksAbsolute bool
}

// Pass reports whether every required check passed.
func (r *StructureResult) Pass() bool {
	return len(r.Failures) == 0
}

// SectionsCompleteness returns the fraction of required checks that passed.
func (r *StructureResult) SectionsCompleteness() float64 {
	total := len(requiredChecks)
	return float64(total-len(r.Failures)) / float64(total)
}

// boundaryPattern tolerates "what agents can…" / "what you can't…" style
// subheadings as boundary sections.
var boundaryPattern = regexp.MustCompile(`(?i)what\s+(agents?|you)\s+can`)

// requiredCheck is one named structural check: a pure predicate over the
// artifact and its markdown outline that records its flag on the result and
// yields a failure message on violation.
type requiredCheck struct {
	name string
	run  func(a *skill.Artifact, o *outline, r *StructureResult) (ok bool, failure string)
}

// requiredChecks is evaluated in fixed order; failure messages accumulate in
// this order.
var requiredChecks = []requiredCheck{
	{"frontmatter", func(a *skill.Artifact, _ *outline, r *StructureResult) (bool, string) {
		r.HasFrontmatter = a.Fields != nil
		return r.HasFrontmatter, "frontmatter block missing"
	}},
	{"name", func(a *skill.Artifact, _ *outline, r *StructureResult) (bool, string) {
		r.HasName = strings.TrimSpace(a.Frontmatter.Name) != ""
		return r.HasName, "frontmatter missing name"
	}},
	{"description", func(a *skill.Artifact, _ *outline, r *StructureResult) (bool, string) {
		r.HasDescription = strings.TrimSpace(a.Frontmatter.Description) != ""
		return r.HasDescription, "frontmatter missing description"
	}},
	{"language", func(a *skill.Artifact, _ *outline, r *StructureResult) (bool, string) {
		r.HasLanguage = strings.TrimSpace(a.Frontmatter.Language) != ""
		return r.HasLanguage, "frontmatter missing language"
	}},
	{"overview", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasOverview = o.hasHeading(headingContains("overview"))
		return r.HasOverview, "missing Overview section"
	}},
	{"examples", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasExamples = o.hasHeading(func(h heading) bool {
			lower := strings.ToLower(h.text)
			if strings.Contains(lower, "code examples") || strings.Contains(lower, "basic usage") {
				return true
			}
			return h.level == 3 && strings.Contains(lower, "example")
		})
		return r.HasExamples, "missing code examples section"
	}},
	{"boundaries", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasBoundary = o.hasHeading(func(h heading) bool {
			return strings.Contains(strings.ToLower(h.text), "boundaries") || boundaryPattern.MatchString(h.text)
		})
		return r.HasBoundary, "missing boundaries section"
	}},
	{"gotchas", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasGotchas = o.hasHeading(headingContains("gotchas"))
		return r.HasGotchas, "missing Gotchas section"
	}},
	{"doc-links", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasDocLinks = o.hasHeading(func(h heading) bool {
			lower := strings.ToLower(h.text)
			return strings.Contains(lower, "documentation") || strings.Contains(lower, "links") || strings.Contains(lower, "resources")
		})
		if !r.HasDocLinks {
			for _, l := range o.links {
				if isAbsoluteURL(l) {
					r.HasDocLinks = true
					break
				}
			}
		}
		return r.HasDocLinks, "missing documentation links"
	}},
	{"code-block", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		r.HasCodeBlock = len(o.fences) > 0
		return r.HasCodeBlock, "no fenced code blocks"
	}},
	{"code-language", func(a *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		tagged := 0
		matched := false
		for _, f := range o.fences {
			if f.lang == "" {
				continue
			}
			tagged++
			if skill.MatchesLanguage(a.Frontmatter.Language, f.lang) {
				matched = true
			}
		}
		// Vacuously true when no block declares a tag.
		r.CodeBlocksUseCorrectLanguage = tagged == 0 || matched
		return r.CodeBlocksUseCorrectLanguage,
			fmt.Sprintf("code block languages do not match declared language %q", a.Frontmatter.Language)
	}},
	{"empty-sections", func(_ *skill.Artifact, o *outline, r *StructureResult) (bool, string) {
		empty := o.emptySections()
		r.NoEmptySections = len(empty) == 0
		if r.NoEmptySections {
			return true, ""
		}
		return false, fmt.Sprintf("empty section: %q has no content", empty[0])
	}},
}

// EvaluateStructure runs every required check in fixed order and computes the
// depth metrics.
func EvaluateStructure(a *skill.Artifact) *StructureResult {
	o := parseOutline(a.Body)
	r := &StructureResult{}

	for _, check := range requiredChecks {
		if ok, failure := check.run(a, o, r); !ok {
			r.Failures = append(r.Failures, failure)
		}
	}

	r.OverviewWords = o.sectionWordCount(headingContains("overview"))
	r.OverviewMinWords = r.OverviewWords >= OverviewMinWords
	r.CodeBlockCount = len(o.fences)
	r.HasDecisionTable = o.hasTable
	r.AllLinksAbsolute = true
	for _, l := range o.links {
		if !isAbsoluteURL(l) {
			r.AllLinksAbsolute = false
			break
		}
	}

	return r
}

func headingContains(sub string) func(heading) bool {
	return func(h heading) bool {
		return strings.Contains(strings.ToLower(h.text), sub)
	}
}

func isAbsoluteURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
