// Package enrichment attaches generated descriptions to every field of a nested table
// schema. The schema is split into fixed-size chunks of top-level fields; each chunk is
// one request to the text-generation service, and the answers are merged back in chunk
// order with field identity checked against the input.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/jsonutil"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/llm"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/sanitize"
)

// ChunkStatus is the outcome of one chunk.
type ChunkStatus string

const (
	ChunkStatusOK       ChunkStatus = "ok"
	ChunkStatusDropped  ChunkStatus = "dropped"
	ChunkStatusFallback ChunkStatus = "fallback"
)

// ChunkReport describes what happened to one chunk.
type ChunkReport struct {
	Index    int
	Start    int
	End      int
	Fields   int // top-level fields the chunk contributed to the result
	Status   ChunkStatus
	Err      error
	Duration time.Duration
}

// Report is the detailed outcome of an enrichment run.
type Report struct {
	Fields []models.Field
	Chunks []ChunkReport
}

// Failed returns the reports of chunks that were not enriched.
func (r *Report) Failed() []ChunkReport {
	var out []ChunkReport
	for _, c := range r.Chunks {
		if c.Status != ChunkStatusOK {
			out = append(out, c)
		}
	}
	return out
}

// Engine enriches schemas through a text-generation service.
// It keeps no state between calls and is safe for concurrent use.
type Engine struct {
	resolver  prompts.Resolver
	client    llm.LLMClient
	cfg       Config
	sanitizer *sanitize.Sanitizer
	pool      *llm.WorkerPool
	breaker   *llm.CircuitBreaker
	logger    *zap.Logger
}

// NewEngine creates an engine. Zero values in cfg take their defaults.
func NewEngine(resolver prompts.Resolver, client llm.LLMClient, cfg Config, logger *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		resolver:  resolver,
		client:    client,
		cfg:       cfg,
		sanitizer: sanitize.New(cfg.MaxDescriptionLength),
		pool:      llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.MaxConcurrent}, logger),
		logger:    logger.Named("enrichment"),
	}
}

// SetCircuitBreaker makes the engine fail chunks fast once the breaker opens.
// Call before the engine is used.
func (e *Engine) SetCircuitBreaker(cb *llm.CircuitBreaker) {
	e.breaker = cb
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Enrich returns the enriched schema. Fields of failed chunks are omitted, or kept with
// their original descriptions when FallbackToOriginal is set. It fails when the template
// cannot be resolved or when every chunk fails.
func (e *Engine) Enrich(ctx context.Context, schema []models.Field, resourceLabel string) ([]models.Field, error) {
	report, err := e.EnrichDetailed(ctx, schema, resourceLabel)
	if err != nil {
		return nil, err
	}
	return report.Fields, nil
}

// EnrichDetailed is Enrich with a per-chunk report. When every chunk fails the report is
// still returned alongside the *EnrichmentError.
func (e *Engine) EnrichDetailed(ctx context.Context, schema []models.Field, resourceLabel string) (*Report, error) {
	tmpl, err := e.resolver.GetTemplate(ctx, prompts.FieldEnrichmentTemplate)
	if err != nil {
		return nil, fmt.Errorf("resolve field enrichment template: %w", err)
	}
	if err := tmpl.Validate(e.params(resourceLabel, "")); err != nil {
		return nil, err
	}
	if !slices.Contains(tmpl.Params(), prompts.ParamFields) && !slices.Contains(tmpl.Params(), prompts.ParamLegacySchema) {
		e.logger.Warn("Field enrichment template does not reference the field list",
			zap.String("template", tmpl.Name))
	}

	if len(schema) == 0 {
		return &Report{Fields: []models.Field{}}, nil
	}

	chunks := Partition(schema, e.cfg.ChunkSize)
	e.logger.Info("Enriching schema",
		zap.String("resource", resourceLabel),
		zap.Int("top_level_fields", len(schema)),
		zap.Int("total_fields", models.CountFields(schema)),
		zap.Int("chunks", len(chunks)),
		zap.Int("max_concurrent", e.pool.MaxConcurrent()))

	type chunkOutput struct {
		fields   []models.Field
		duration time.Duration
	}

	items := make([]llm.WorkItem[chunkOutput], len(chunks))
	for i, chunk := range chunks {
		items[i] = llm.WorkItem[chunkOutput]{
			ID: fmt.Sprintf("%s-chunk-%d", resourceLabel, chunk.Index),
			Execute: func(ctx context.Context) (chunkOutput, error) {
				start := time.Now()
				fields, err := e.enrichChunk(ctx, tmpl, resourceLabel, chunk)
				return chunkOutput{fields: fields, duration: time.Since(start)}, err
			},
		}
	}

	results := llm.Process(ctx, e.pool, items, func(completed, total int) {
		e.logger.Debug("Chunk finished",
			zap.String("resource", resourceLabel),
			zap.Int("completed", completed),
			zap.Int("total", total))
	})

	report := &Report{
		Fields: make([]models.Field, 0, len(schema)),
		Chunks: make([]ChunkReport, len(chunks)),
	}
	var failures []*ChunkError
	for i, res := range results {
		chunk := chunks[i]
		cr := ChunkReport{
			Index:    chunk.Index,
			Start:    chunk.Start,
			End:      chunk.End,
			Duration: res.Result.duration,
		}

		if res.Err == nil {
			cr.Status = ChunkStatusOK
			cr.Fields = len(res.Result.fields)
			report.Fields = append(report.Fields, res.Result.fields...)
			report.Chunks[i] = cr
			continue
		}

		cr.Err = res.Err
		failures = append(failures, &ChunkError{Chunk: chunk.Index, Start: chunk.Start, End: chunk.End, Err: res.Err})

		if e.cfg.FallbackToOriginal {
			cr.Status = ChunkStatusFallback
			cr.Fields = len(chunk.Fields)
			report.Fields = append(report.Fields, models.MapDescriptions(chunk.Fields, e.sanitizer.Sanitize)...)
		} else {
			cr.Status = ChunkStatusDropped
		}
		report.Chunks[i] = cr

		e.logger.Warn("Chunk enrichment failed",
			zap.String("resource", resourceLabel),
			zap.Int("chunk", chunk.Index),
			zap.Int("start", chunk.Start),
			zap.Int("end", chunk.End),
			zap.String("status", string(cr.Status)),
			zap.String("error_type", string(errorType(res.Err))),
			zap.String("error", logging.SanitizeError(res.Err)))
	}

	if len(failures) == len(chunks) {
		return report, &EnrichmentError{Errors: failures}
	}

	e.logger.Info("Schema enriched",
		zap.String("resource", resourceLabel),
		zap.Int("chunks_ok", len(chunks)-len(failures)),
		zap.Int("chunks_failed", len(failures)),
		zap.Int("top_level_fields", len(report.Fields)))

	return report, nil
}

// DescribeTable generates the table-level description for a resource.
func (e *Engine) DescribeTable(ctx context.Context, resourceLabel string) (string, error) {
	tmpl, err := e.resolver.GetTemplate(ctx, prompts.TableDescriptionTemplate)
	if err != nil {
		return "", fmt.Errorf("resolve table description template: %w", err)
	}
	prompt, err := tmpl.Render(e.params(resourceLabel, ""))
	if err != nil {
		return "", err
	}

	callCtx := llm.WithChunkContext(ctx, resourceLabel, -1, tmpl.Name)
	content, err := e.generate(callCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("describe table %s: %w", resourceLabel, err)
	}

	description := e.sanitizer.Sanitize(unquote(llm.CleanText(content)))
	if description == "" {
		return "", llm.NewError(llm.ErrorTypeEmpty, "table description is empty", false, nil)
	}
	return description, nil
}

// enrichChunk issues the single request for a chunk and merges the answer.
func (e *Engine) enrichChunk(ctx context.Context, tmpl *prompts.Template, resourceLabel string, chunk Chunk) ([]models.Field, error) {
	fieldsJSON, err := json.MarshalIndent(chunk.Fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode chunk %d: %w", chunk.Index, err)
	}
	prompt, err := tmpl.Render(e.params(resourceLabel, string(fieldsJSON)))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Enriching chunk",
		zap.String("resource", resourceLabel),
		zap.Int("chunk", chunk.Index),
		zap.Int("start", chunk.Start),
		zap.Int("end", chunk.End))

	callCtx := llm.WithChunkContext(ctx, resourceLabel, chunk.Index, tmpl.Name)
	content, err := e.generate(callCtx, prompt)
	if err != nil {
		return nil, err
	}
	return e.parseChunk(chunk, content)
}

// generate performs one call through the circuit breaker, if any.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	if e.breaker != nil {
		if err := e.breaker.Allow(); err != nil {
			return "", err
		}
	}
	result, err := e.client.GenerateResponse(ctx, prompt, e.cfg.SystemMessage, e.cfg.Temperature)
	if e.breaker != nil {
		e.breaker.Observe(err)
	}
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (e *Engine) params(resourceLabel, fieldsJSON string) map[string]string {
	return map[string]string{
		prompts.ParamResourceLabel:  resourceLabel,
		prompts.ParamFields:         fieldsJSON,
		prompts.ParamDetail:         e.cfg.LevelOfDetail.Instruction(),
		prompts.ParamMaxLength:      strconv.Itoa(e.cfg.MaxDescriptionLength),
		prompts.ParamLegacyResource: resourceLabel,
		prompts.ParamLegacyTable:    resourceLabel,
		prompts.ParamLegacySchema:   fieldsJSON,
	}
}

// responseField is one field as returned by the service. Only names and descriptions
// are read; types and modes always come from the input schema.
type responseField struct {
	Name        jsonutil.FlexibleString `json:"name"`
	Description jsonutil.FlexibleString `json:"description"`
	Fields      []responseField         `json:"fields"`
}

// parseChunk decodes a reply and merges it over the chunk's fields. The top level must
// echo the chunk exactly: same count, same names, same order.
func (e *Engine) parseChunk(chunk Chunk, content string) ([]models.Field, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, newParseError(chunk.Index, content, "no JSON found", err)
	}

	arr, err := fieldList(chunk, []byte(raw))
	if err != nil {
		return nil, newParseError(chunk.Index, content, "no field list", err)
	}

	var got []responseField
	if err := json.Unmarshal(arr, &got); err != nil {
		return nil, newParseError(chunk.Index, content, "decode field list", err)
	}
	if len(got) != len(chunk.Fields) {
		return nil, newParseError(chunk.Index, content,
			fmt.Sprintf("expected %d fields, got %d", len(chunk.Fields), len(got)), nil)
	}
	for i := range got {
		want := chunk.Fields[i].Name
		if name := strings.TrimSpace(got[i].Name.String()); name != want {
			return nil, newParseError(chunk.Index, content,
				fmt.Sprintf("field %d: expected %q, got %q", chunk.Start+i, want, name), nil)
		}
	}

	out := make([]models.Field, len(got))
	for i := range got {
		out[i] = e.merge(chunk.Fields[i], got[i])
	}
	return out, nil
}

// fieldList finds the array of fields in a decoded reply. A lone object naming the only
// field of the chunk is accepted as a one-element list.
func fieldList(chunk Chunk, raw []byte) ([]byte, error) {
	if len(chunk.Fields) == 1 && len(raw) > 0 && raw[0] == '{' {
		var single responseField
		if err := json.Unmarshal(raw, &single); err == nil &&
			strings.TrimSpace(single.Name.String()) == chunk.Fields[0].Name {
			return append(append([]byte{'['}, raw...), ']'), nil
		}
	}
	arr, err := jsonutil.UnwrapArray(raw, "fields", "schema", "columns")
	if err != nil {
		if errors.Is(err, jsonutil.ErrNotArray) {
			return nil, fmt.Errorf("%w: %v", ErrNoFields, err)
		}
		return nil, err
	}
	return arr, nil
}

// merge copies orig, replacing descriptions with the generated ones. Nested fields are
// matched by name in order; children the reply left out keep their original description.
func (e *Engine) merge(orig models.Field, got responseField) models.Field {
	out := orig
	out.Description = e.description(orig.Description, got.Description.String())
	if orig.Fields == nil {
		return out
	}

	used := make([]bool, len(got.Fields))
	out.Fields = make([]models.Field, len(orig.Fields))
	for i, child := range orig.Fields {
		match := -1
		for j, g := range got.Fields {
			if !used[j] && strings.TrimSpace(g.Name.String()) == child.Name {
				match = j
				break
			}
		}
		if match < 0 {
			out.Fields[i] = models.MapDescriptions([]models.Field{child}, e.sanitizer.Sanitize)[0]
			continue
		}
		used[match] = true
		out.Fields[i] = e.merge(child, got.Fields[match])
	}
	return out
}

// description prefers the generated text and falls back to the original when the
// generated text sanitizes to nothing.
func (e *Engine) description(original, generated string) string {
	if s := e.sanitizer.Sanitize(generated); s != "" {
		return s
	}
	return e.sanitizer.Sanitize(original)
}

// unquote drops one pair of quotes wrapped around a whole reply.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func errorType(err error) llm.ErrorType {
	var pe *ParseError
	if errors.As(err, &pe) {
		return "parse"
	}
	if errors.Is(err, llm.ErrCircuitOpen) {
		return "circuit_open"
	}
	return llm.ClassifyError(err).Type
}
