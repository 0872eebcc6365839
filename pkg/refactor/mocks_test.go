package refactor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/pyrewrite/pkg/refactor"
)

func TestReplaceComplexDataWithMocks(t *testing.T) {
	t.Parallel()

	numbers := make([]string, 21)
	for i := range numbers {
		numbers[i] = "0"
	}
	src := "SMALL = {\"a\": 1, \"b\": [1, 2]}\n" +
		"CONFIG = {\"db\": {\"hosts\": [{\"name\": \"x\"}]}}\n" +
		"BIG = [" + strings.Join(numbers, ", ") + "]\n" +
		"NAMES = {\"a\", \"b\"}\n" +
		"print(CONFIG, BIG)\n"
	want := "SMALL = {\"a\": 1, \"b\": [1, 2]}\n" +
		"CONFIG = {}\n" +
		"BIG = []\n" +
		"NAMES = {\"a\", \"b\"}\n" +
		"print(CONFIG, BIG)\n"

	e := newEngine(t, src)
	require.NoError(t, e.ReplaceComplexDataWithMocks())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, []string{"Replaced 2 complex data structures with mocks: CONFIG, BIG"}, e.ChangeSummary().Descriptions())

	require.NoError(t, e.ReplaceComplexDataWithMocks())
	assert.Equal(t, "No complex data structures found", e.ChangeSummary()[1].Description)
}

func TestReplaceComplexDataCustomLimits(t *testing.T) {
	t.Parallel()

	rules := refactor.DefaultMockRules()
	rules.MaxDepth = 1
	e := newEngine(t, "PAIRS = [(1, 2)]\nFLAT = (1, 2)\n", refactor.WithMockRules(rules))
	require.NoError(t, e.ReplaceComplexDataWithMocks())
	assert.Equal(t, "PAIRS = []\nFLAT = (1, 2)\n", e.GetCode())
}

func TestReplaceRealDataWithMocks(t *testing.T) {
	t.Parallel()

	src := `import os

API_KEY = "sk-abcdefghijklmnopqrstuvwx"
DB_PASSWORD = "hunter2"
settings = {"token": "abc123", "name": "demo", "home": "/home/alice/data"}
url = "https://user:pw@example.com/db"
greeting = "hello"
auth_header = f"Bearer {greeting}"
TOKEN_SOURCE = os.environ.get("X", "default")
client = connect(host="localhost", password="s3cr3t")
`
	want := `import os

API_KEY = "mock"
DB_PASSWORD = "mock"
settings = {"token": "mock", "name": "demo", "home": "mock"}
url = "mock"
greeting = "hello"
auth_header = f"Bearer {greeting}"
TOKEN_SOURCE = os.environ.get("X", "default")
client = connect(host="localhost", password="mock")
`
	e := newEngine(t, src)
	require.NoError(t, e.ReplaceRealDataWithMocks())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, []string{
		"Replaced real data with mocks in 5 assignments: API_KEY, DB_PASSWORD, settings, url, client",
	}, e.ChangeSummary().Descriptions())

	require.NoError(t, e.ReplaceRealDataWithMocks())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, "No real data found", e.ChangeSummary()[1].Description)
}

func TestReplaceRealDataKeepsMetadata(t *testing.T) {
	t.Parallel()

	src := `__version__ = "1.0.0"
__author__ = "Jane Doe"
AUTHORS = ["Jane", "Bob"]
author_email = "jane@example.com"
AUTH_TOKEN = "abc"
headers = {"Authorization": "xyz"}
`
	want := `__version__ = "1.0.0"
__author__ = "Jane Doe"
AUTHORS = ["Jane", "Bob"]
author_email = "jane@example.com"
AUTH_TOKEN = "mock"
headers = {"Authorization": "mock"}
`
	e := newEngine(t, src)
	require.NoError(t, e.ReplaceRealDataWithMocks())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, []string{
		"Replaced real data with mocks in 2 assignments: AUTH_TOKEN, headers",
	}, e.ChangeSummary().Descriptions())
}

func TestReplaceRealDataKeepsBytesPrefix(t *testing.T) {
	t.Parallel()

	rules := refactor.DefaultMockRules()
	rules.Placeholder = "redacted"
	e := newEngine(t, "SECRET = b'raw'\n", refactor.WithMockRules(rules))
	require.NoError(t, e.ReplaceRealDataWithMocks())
	assert.Equal(t, "SECRET = b\"redacted\"\n", e.GetCode())
}

func TestConvertToTestCode(t *testing.T) {
	t.Parallel()

	src := "import os\nimport json\n\nCONFIG = {\"a\": {\"b\": {\"c\": 1}}}\nAPI_KEY = \"k\"\nprint(json.dumps(CONFIG), API_KEY)\n"
	e := newEngine(t, src)
	require.NoError(t, e.ConvertToTestCode())
	assert.Equal(t, "import json\n\nCONFIG = {}\nAPI_KEY = \"mock\"\nprint(json.dumps(CONFIG), API_KEY)\n", e.GetCode())
	assert.Equal(t, []string{
		"Removed 1 unused imports: os",
		"Replaced 1 complex data structures with mocks: CONFIG",
		"Replaced real data with mocks in 1 assignments: API_KEY",
	}, e.ChangeSummary().Descriptions())
}

func TestMockRulesValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, refactor.DefaultMockRules().Validate())

	tests := []struct {
		name  string
		alter func(*refactor.MockRules)
	}{
		{"zero depth", func(r *refactor.MockRules) { r.MaxDepth = 0 }},
		{"zero entries", func(r *refactor.MockRules) { r.MaxEntries = 0 }},
		{"bad pattern", func(r *refactor.MockRules) { r.SecretPatterns = append(r.SecretPatterns, "(") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rules := refactor.DefaultMockRules()
			tt.alter(&rules)
			assert.Error(t, rules.Validate())

			e := newEngine(t, "CONFIG = {}\n", refactor.WithMockRules(rules))
			assert.Error(t, e.ReplaceComplexDataWithMocks())
			assert.Error(t, e.ReplaceRealDataWithMocks())
			assert.Equal(t, 0, e.ChangeSummary().Len())
		})
	}
}
