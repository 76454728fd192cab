package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/skillgauge/skillgauge/internal/models"
)

// listSeparator splits multi-valued CSV cells (required_imports etc.).
const listSeparator = ";"

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// LoadCSV reads a flat CSV dataset and returns test cases. The first row is
// treated as headers; recognized columns are id, skill_path, question,
// challenge, criteria, required_imports, required_patterns,
// forbidden_patterns, and expect_refusal. List columns use ';' separators.
func LoadCSV(path string) ([]models.TestCase, error) {
	rows, err := loadRows(path)
	if err != nil {
		return nil, err
	}

	cases := make([]models.TestCase, 0, len(rows))
	for i, row := range rows {
		id := row["id"]
		if id == "" {
			id = fmt.Sprintf("row-%d", i+1)
		}
		tc := models.TestCase{
			ID: id,
			Inputs: models.Inputs{
				SkillPath: row["skill_path"],
				Question:  row["question"],
				Challenge: row["challenge"],
			},
			ReferenceOutputs: models.ReferenceOutputs{
				Criteria:          row["criteria"],
				RequiredImports:   splitList(row["required_imports"]),
				RequiredPatterns:  splitList(row["required_patterns"]),
				ForbiddenPatterns: splitList(row["forbidden_patterns"]),
			},
		}
		if v, ok := row["expect_refusal"]; ok && v != "" {
			refuse := strings.EqualFold(v, "true") || v == "1"
			tc.ReferenceOutputs.ExpectRefusal = &refuse
		}
		if tc.Inputs.SkillPath == "" {
			return nil, fmt.Errorf("csv: row %d missing skill_path", i+2)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func loadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Load picks the loader from the file extension: .csv for flat datasets,
// anything else is treated as YAML records.
func Load(path string) ([]models.TestCase, error) {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadYAML(path)
}
