package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/ddl"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/enrichment"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/sanitize"
)

// Enricher is the part of the enrichment engine the pipeline drives.
type Enricher interface {
	EnrichDetailed(ctx context.Context, schema []models.Field, resourceLabel string) (*enrichment.Report, error)
	DescribeTable(ctx context.Context, resourceLabel string) (string, error)
}

var _ Enricher = (*enrichment.Engine)(nil)

// SchemaDescriptionService turns a raw table schema into a described schema and DDL.
type SchemaDescriptionService interface {
	// Describe generates the table description and field descriptions, then renders DDL.
	// Chunk failures are reported on the result; only template lookup failures and a
	// total enrichment failure are returned as errors.
	Describe(ctx context.Context, req *DescribeRequest) (*DescribeResult, error)

	// Render produces DDL from an already described schema without calling the service.
	Render(req *RenderRequest) (*RenderResult, error)
}

// DescribeRequest is the input of Describe.
type DescribeRequest struct {
	// TableName is the fully qualified table, e.g. "project.dataset.fhir_Patient".
	TableName string
	// ResourceLabel defaults to the resource derived from TableName.
	ResourceLabel string
	Fields        []models.Field
	Mode          ddl.Mode
	// SkipTableDescription leaves the table description empty without calling the service.
	SkipTableDescription bool
}

// DescribeResult is the output of Describe.
type DescribeResult struct {
	TableName        string                   `json:"table_name"`
	ResourceLabel    string                   `json:"resource_label"`
	TableDescription string                   `json:"table_description,omitempty"`
	Fields           []models.Field           `json:"fields"`
	SQL              string                   `json:"sql"`
	Missing          []string                 `json:"missing,omitempty"` // top-level fields absent from Fields
	Chunks           []enrichment.ChunkReport `json:"-"`
	Findings         []ddl.Finding            `json:"findings,omitempty"`
	Warnings         []string                 `json:"warnings,omitempty"`
	DurationMs       int64                    `json:"duration_ms"`
}

// RenderRequest is the input of Render.
type RenderRequest struct {
	TableName        string
	Fields           []models.Field
	TableDescription string
	Mode             ddl.Mode
}

// RenderResult is the output of Render.
type RenderResult struct {
	SQL      string        `json:"sql"`
	Findings []ddl.Finding `json:"findings,omitempty"`
}

type schemaDescriptionService struct {
	enricher  Enricher
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewSchemaDescriptionService creates the pipeline service. maxDescriptionLength bounds
// descriptions passed to Render; a non-positive value selects the sanitizer default.
func NewSchemaDescriptionService(enricher Enricher, maxDescriptionLength int, logger *zap.Logger) SchemaDescriptionService {
	return &schemaDescriptionService{
		enricher:  enricher,
		sanitizer: sanitize.New(maxDescriptionLength),
		logger:    logger.Named("schema-description"),
	}
}

var _ SchemaDescriptionService = (*schemaDescriptionService)(nil)

func (s *schemaDescriptionService) Describe(ctx context.Context, req *DescribeRequest) (*DescribeResult, error) {
	startTime := time.Now()

	if strings.TrimSpace(req.TableName) == "" {
		return nil, fmt.Errorf("%w: table name is required", apperrors.ErrInvalidInput)
	}
	if err := models.ValidateSchema(req.Fields); err != nil {
		return nil, err
	}

	label := req.ResourceLabel
	if label == "" {
		label = models.ResourceLabel(req.TableName)
	}

	result := &DescribeResult{
		TableName:     req.TableName,
		ResourceLabel: label,
	}

	if !req.SkipTableDescription {
		desc, err := s.enricher.DescribeTable(ctx, label)
		switch {
		case err == nil:
			result.TableDescription = desc
		case errors.Is(err, prompts.ErrTemplateNotFound), errors.Is(err, prompts.ErrMissingTemplateParam):
			return nil, err
		default:
			s.logger.Warn("Table description failed, rendering without one",
				zap.String("table", req.TableName),
				zap.String("error", logging.SanitizeError(err)))
			result.Warnings = append(result.Warnings, "table description: "+logging.SanitizeError(err))
		}
	}

	report, err := s.enricher.EnrichDetailed(ctx, req.Fields, label)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", req.TableName, err)
	}
	result.Fields = report.Fields
	result.Chunks = report.Chunks
	for _, c := range report.Failed() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("chunk %d (fields %d-%d) %s: %s", c.Index, c.Start, c.End, c.Status, logging.SanitizeError(c.Err)))
	}
	result.Missing = missingFields(req.Fields, result.Fields)

	result.Findings = s.audit(req.TableName, result.Fields, result.TableDescription)
	result.SQL = ddl.Render(req.Mode, req.TableName, result.Fields, result.TableDescription)
	result.DurationMs = time.Since(startTime).Milliseconds()

	s.logger.Info("Schema described",
		zap.String("table", req.TableName),
		zap.String("resource", label),
		zap.Int("fields", models.CountFields(result.Fields)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("findings", len(result.Findings)),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

func (s *schemaDescriptionService) Render(req *RenderRequest) (*RenderResult, error) {
	if strings.TrimSpace(req.TableName) == "" {
		return nil, fmt.Errorf("%w: table name is required", apperrors.ErrInvalidInput)
	}
	if err := models.ValidateSchema(req.Fields); err != nil {
		return nil, err
	}

	fields := models.MapDescriptions(req.Fields, s.sanitizer.Sanitize)
	tableDescription := s.sanitizer.Sanitize(req.TableDescription)

	return &RenderResult{
		SQL:      ddl.Render(req.Mode, req.TableName, fields, tableDescription),
		Findings: s.audit(req.TableName, fields, tableDescription),
	}, nil
}

// audit logs descriptions that carry a SQL injection fingerprint.
func (s *schemaDescriptionService) audit(table string, fields []models.Field, tableDescription string) []ddl.Finding {
	findings := ddl.AuditDescriptions(fields)
	if isSQLi, fingerprint := ddl.AuditText(tableDescription); isSQLi {
		findings = append([]ddl.Finding{{Path: table, Fingerprint: fingerprint, Description: tableDescription}}, findings...)
	}
	for _, f := range findings {
		s.logger.Warn("Description looks like SQL injection",
			zap.String("table", table),
			zap.String("path", f.Path),
			zap.String("fingerprint", f.Fingerprint),
			zap.String("description", logging.Preview(f.Description)))
	}
	return findings
}

// missingFields lists the top-level names of want that got does not carry, honoring duplicates.
func missingFields(want, got []models.Field) []string {
	counts := make(map[string]int, len(got))
	for _, f := range got {
		counts[f.Name]++
	}
	var missing []string
	for _, f := range want {
		if counts[f.Name] > 0 {
			counts[f.Name]--
			continue
		}
		missing = append(missing, f.Name)
	}
	return missing
}
