// Package reporting renders suite outcomes for external consumers.
package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/skillgauge/skillgauge/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one suite run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one test case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a failed validation check.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents an unexpected error during case execution.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a suite outcome to JUnit XML format.
func ConvertToJUnit(outcome *models.SuiteOutcome) *JUnitTestSuites {
	durationSec := float64(outcome.Digest.DurationMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      outcome.Name,
		Tests:     outcome.Digest.Total,
		Failures:  outcome.Digest.Failed,
		Errors:    outcome.Digest.Errors,
		Time:      durationSec,
		Timestamp: outcome.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "kind", Value: outcome.Kind},
			{Name: "pass_rate", Value: fmt.Sprintf("%.4f", outcome.Digest.PassRate)},
		},
	}

	for i := range outcome.Cases {
		suite.TestCases = append(suite.TestCases, convertCaseOutcome(outcome.Name, &outcome.Cases[i]))
	}

	return &JUnitTestSuites{
		Tests:      outcome.Digest.Total,
		Failures:   outcome.Digest.Failed,
		Errors:     outcome.Digest.Errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertCaseOutcome(suiteName string, co *models.CaseOutcome) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      co.ID,
		Classname: suiteName,
		Time:      float64(co.DurationMs) / 1000.0,
	}

	switch co.Status {
	case models.StatusFailed:
		tc.Failure = buildFailure(co)
	case models.StatusError:
		tc.Error = buildError(co)
	}

	return tc
}

func buildFailure(co *models.CaseOutcome) *JUnitFailure {
	return &JUnitFailure{
		Message: fmt.Sprintf("%s: %d check(s) failed", co.ID, len(co.Failures)),
		Type:    "CheckFailure",
		Body:    strings.Join(co.Failures, "\n"),
	}
}

func buildError(co *models.CaseOutcome) *JUnitError {
	msg := co.ErrorMsg
	if msg == "" {
		msg = "execution error"
	}
	return &JUnitError{
		Message: msg,
		Type:    "ExecutionError",
	}
}

// FormatScores renders a case's scores sorted by key, for console summaries.
func FormatScores(scores map[string]float64) string {
	if len(scores) == 0 {
		return ""
	}

	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, scores[k]))
	}
	return strings.Join(parts, " ")
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.SuiteOutcome, path string) error {
	suites := ConvertToJUnit(outcome)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
