package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/config"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

const testSchema = `[
  {"name": "id", "type": "STRING", "mode": "REQUIRED", "description": "Logical id"},
  {"name": "active", "type": "BOOLEAN"},
  {"name": "name", "type": "RECORD", "mode": "REPEATED", "fields": [
    {"name": "family", "type": "STRING"}
  ]}
]`

// writeTestConfig writes a config file and a schema file into a temp dir and returns the
// config path. Extra YAML is appended verbatim.
func writeTestConfig(t *testing.T, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))

	cfgPath = filepath.Join(dir, "config.yaml")
	yaml := "env: test\n" +
		"files:\n  input_schema: " + schemaPath + "\n" +
		"bigquery:\n  project_id: proj\n  dataset_id: fhir\n  table_id: fhir_Patient\n" +
		extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	// Keep the caller's environment from overriding the file.
	t.Setenv("LLM_API_KEY", "test-key")
	for _, key := range []string{"INPUT_SCHEMA", "SQL_OUTPUT", "OUTPUT_SCHEMA", "BIGQUERY_MODE", "PROMPT_STORE_TYPE", "PROMPT_STORE_DSN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(dir)
	return dir, cfgPath
}

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"describe", "render", "prompts", "mcp"})
}

func TestRenderCommand(t *testing.T) {
	_, cfgPath := writeTestConfig(t, "")

	out, err := runRoot(t, "", "render", "--config", cfgPath, "--table-description", `The "Patient" table`)
	require.NoError(t, err)

	assert.Contains(t, out, "CREATE OR REPLACE TABLE proj.fhir.fhir_Patient (")
	assert.Contains(t, out, `id STRING OPTIONS(description="Logical id")`)
	assert.Contains(t, out, "active BOOLEAN,")
	assert.Contains(t, out, `OPTIONS(description="The \"Patient\" table");`)
}

func TestRenderCommand_AlterToFile(t *testing.T) {
	dir, cfgPath := writeTestConfig(t, "")
	sqlPath := filepath.Join(dir, "out", "patient.sql")

	_, err := runRoot(t, "", "render", "--config", cfgPath, "--mode", "alter", "--table", "p.d.t", "-o", sqlPath)
	require.NoError(t, err)

	data, err := os.ReadFile(sqlPath)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE p.d.t ALTER COLUMN id SET OPTIONS(description=\"Logical id\");\n", string(data))
}

func TestRenderCommand_Errors(t *testing.T) {
	_, cfgPath := writeTestConfig(t, "")

	_, err := runRoot(t, "", "render", "--config", cfgPath, "--mode", "drop")
	assert.ErrorContains(t, err, "unknown ddl mode")

	_, err = runRoot(t, "", "render", "--config", cfgPath, "--input", "missing.json")
	assert.ErrorContains(t, err, "missing.json")
}

func TestTableFlags_Job(t *testing.T) {
	cfg := &config.Config{}
	cfg.Files.InputSchema = "in.json"
	cfg.BigQuery = config.BigQueryConfig{ProjectID: "p", DatasetID: "d", TableID: "fhir_Observation", Mode: "alter"}

	job, err := (&tableFlags{}).job(cfg)
	require.NoError(t, err)
	assert.Equal(t, "in.json", job.InputSchema)
	assert.Equal(t, "p.d.fhir_Observation", job.TableName)
	assert.EqualValues(t, "alter", job.Mode)

	job, err = (&tableFlags{input: " other.yaml ", table: "x.y.z", mode: "create"}).job(cfg)
	require.NoError(t, err)
	assert.Equal(t, "other.yaml", job.InputSchema)
	assert.Equal(t, "x.y.z", job.TableName)
	assert.EqualValues(t, "create", job.Mode)

	_, err = (&tableFlags{}).job(&config.Config{})
	assert.ErrorContains(t, err, "no input schema")

	_, err = (&tableFlags{input: "in.json"}).job(&config.Config{})
	assert.ErrorContains(t, err, "no table")
}

func TestPromptsCommands_MemoryStore(t *testing.T) {
	_, cfgPath := writeTestConfig(t, "")

	out, err := runRoot(t, "", "prompts", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "field_enrichment")
	assert.Contains(t, out, "table_description")

	out, err = runRoot(t, "", "prompts", "get", "table_description", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "{resource_label}")

	_, err = runRoot(t, "text", "prompts", "set", "custom", "--config", cfgPath)
	assert.True(t, errors.Is(err, errMemoryStore))
}

func TestPromptsCommands_SQLiteStore(t *testing.T) {
	_, cfgPath := writeTestConfig(t, "prompt_store:\n  type: sqlite\n  dsn: "+filepath.Join(t.TempDir(), "prompts.db")+"\n")

	out, err := runRoot(t, "", "prompts", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "field_enrichment", "defaults are seeded on first use")

	out, err = runRoot(t, "Describe {resource_label} for {audience}.\n", "prompts", "set", "table_description", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "resource_label, audience")

	out, err = runRoot(t, "", "prompts", "get", "table_description", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Describe {resource_label} for {audience}.\n", out, "stored templates survive reseeding")

	out, err = runRoot(t, "", "prompts", "seed", "--overwrite", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 of 2 templates")

	_, err = runRoot(t, "", "prompts", "delete", "table_description", "--config", cfgPath)
	require.NoError(t, err)
	_, err = runRoot(t, "", "prompts", "delete", "table_description", "--config", cfgPath)
	assert.Error(t, err)
}

// fakeChatServer answers table description prompts with a sentence and field prompts by
// echoing the schema chunk with a description per top-level field.
func fakeChatServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Messages[len(req.Messages)-1].Content

		content := "```\nStores FHIR Patient resources.\n```"
		if _, rest, ok := strings.Cut(prompt, "Schema fields:\n"); ok {
			chunk, _, _ := strings.Cut(rest, "\n\nReturn only")
			var fields []map[string]any
			require.NoError(t, json.Unmarshal([]byte(chunk), &fields))
			for _, f := range fields {
				f["description"] = "Describes " + f["name"].(string)
			}
			data, err := json.Marshal(fields)
			require.NoError(t, err)
			content = string(data)
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRunDescribe(t *testing.T) {
	dir, cfgPath := writeTestConfig(t, "enrichment:\n  chunk_size: 2\n")

	var calls atomic.Int32
	server := fakeChatServer(t, &calls)
	defer server.Close()

	cfg, err := config.Load(cfgPath, "test")
	require.NoError(t, err)
	cfg.LLM.Endpoint = server.URL
	a := &app{cfg: cfg, logger: zap.NewNop()}
	defer a.Close()

	job, err := (&tableFlags{}).job(cfg)
	require.NoError(t, err)
	job.OutputSchema = filepath.Join(dir, "described.json")
	job.SQLOutput = filepath.Join(dir, "described.sql")

	var out bytes.Buffer
	require.NoError(t, runDescribe(context.Background(), &out, a, job, false, true))

	// One table description call plus two chunks.
	assert.EqualValues(t, 3, calls.Load())

	var result struct {
		TableDescription string `json:"table_description"`
		SQL              string `json:"sql"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "Stores FHIR Patient resources.", result.TableDescription)

	described, err := models.LoadSchema(job.OutputSchema)
	require.NoError(t, err)
	require.Len(t, described, 3)
	assert.Equal(t, "Describes id", described[0].Description)
	assert.Equal(t, "Describes name", described[2].Description)

	sql, err := os.ReadFile(job.SQLOutput)
	require.NoError(t, err)
	assert.Equal(t, result.SQL+"\n", string(sql))
	assert.Contains(t, string(sql), `active BOOLEAN OPTIONS(description="Describes active")`)
}
