package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "cases.yaml", `
- id: qa-basic
  inputs:
    skill_path: skills/http/SKILL.md
    question: How do I set a timeout?
  reference_outputs:
    criteria: Mentions the timeout parameter.
- inputs:
    skill_path: skills/http/SKILL.md
    challenge: Write a GET request with retries.
  reference_outputs:
    criteria: Uses a retry adapter.
    required_imports:
      - import requests
    forbidden_patterns:
      - verify=False
    expect_refusal: false
`)

	cases, err := LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	require.Equal(t, "qa-basic", cases[0].ID)
	require.Equal(t, "skills/http/SKILL.md", cases[0].Inputs.SkillPath)
	require.Equal(t, "How do I set a timeout?", cases[0].Inputs.Question)
	require.Nil(t, cases[0].ReferenceOutputs.ExpectRefusal)

	// Missing IDs default to the record's position.
	require.Equal(t, "case-2", cases[1].ID)
	require.Equal(t, "Write a GET request with retries.", cases[1].Inputs.Challenge)
	require.Equal(t, []string{"import requests"}, cases[1].ReferenceOutputs.RequiredImports)
	require.Equal(t, []string{"verify=False"}, cases[1].ReferenceOutputs.ForbiddenPatterns)
	require.NotNil(t, cases[1].ReferenceOutputs.ExpectRefusal)
	require.False(t, *cases[1].ReferenceOutputs.ExpectRefusal)
}

func TestLoadYAML_MissingSkillPath(t *testing.T) {
	path := writeTemp(t, "bad.yaml", `
- id: broken
  inputs:
    question: Where is the skill?
`)

	_, err := LoadYAML(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "skill_path")
}

func TestLoadYAML_NotAList(t *testing.T) {
	path := writeTemp(t, "bad.yaml", `
name: not-a-dataset
`)

	_, err := LoadYAML(path)
	require.Error(t, err)
}

func TestLoadYAML_UnknownField(t *testing.T) {
	path := writeTemp(t, "bad.yaml", `
- inputs:
    skill_path: skills/x/SKILL.md
  expected: typo-for-reference-outputs
`)

	_, err := LoadYAML(path)
	require.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, "cases.csv",
		"id,skill_path,question,criteria,required_imports,expect_refusal\n"+
			"qa-1,skills/http/SKILL.md,How do I retry?,Mentions adapters,import requests;import urllib3,\n"+
			",skills/http/SKILL.md,Off topic question,Declines politely,,true\n")

	cases, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	require.Equal(t, "qa-1", cases[0].ID)
	require.Equal(t, []string{"import requests", "import urllib3"}, cases[0].ReferenceOutputs.RequiredImports)
	require.Nil(t, cases[0].ReferenceOutputs.ExpectRefusal)

	require.Equal(t, "row-2", cases[1].ID)
	require.NotNil(t, cases[1].ReferenceOutputs.ExpectRefusal)
	require.True(t, *cases[1].ReferenceOutputs.ExpectRefusal)
}

func TestLoadCSV_ColumnCountMismatch(t *testing.T) {
	path := writeTemp(t, "bad.csv",
		"id,skill_path\nonly-one-column\n")

	_, err := LoadCSV(path)
	require.Error(t, err)
}

func TestLoadCSV_MissingSkillPath(t *testing.T) {
	path := writeTemp(t, "bad.csv",
		"id,skill_path,question\nqa-1,,How?\n")

	_, err := LoadCSV(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "skill_path")
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	yamlPath := writeTemp(t, "cases.yaml", `
- inputs:
    skill_path: skills/x/SKILL.md
`)
	csvPath := writeTemp(t, "cases.csv",
		"skill_path\nskills/x/SKILL.md\n")

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	require.Len(t, fromYAML, 1)

	fromCSV, err := Load(csvPath)
	require.NoError(t, err)
	require.Len(t, fromCSV, 1)
}

func TestValidateRecords_PointerScopedErrors(t *testing.T) {
	doc := []any{
		map[string]any{"inputs": map[string]any{"skill_path": "ok.md"}},
		map[string]any{"inputs": map[string]any{}},
	}
	errs := validateRecords(doc)
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "/1/inputs")
}
