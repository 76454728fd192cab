// Package dataset loads declarative test case records from YAML or CSV
// files. YAML datasets are schema-validated before decoding.
package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/skillgauge/skillgauge/internal/models"
)

// LoadYAML reads an ordered list of test case records from a YAML file.
// The document is validated against the embedded dataset schema first, so
// decode errors surface as pointer-scoped messages rather than zero-valued
// cases.
func LoadYAML(path string) ([]models.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dataset: parsing %s: %w", path, err)
	}

	if errs := validateRecords(doc); len(errs) > 0 {
		return nil, fmt.Errorf("dataset: %s is invalid:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var cases []models.TestCase
	if err := mapstructure.Decode(doc, &cases); err != nil {
		return nil, fmt.Errorf("dataset: decoding %s: %w", path, err)
	}

	for i := range cases {
		if cases[i].ID == "" {
			cases[i].ID = fmt.Sprintf("case-%d", i+1)
		}
	}
	return cases, nil
}
