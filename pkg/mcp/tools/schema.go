package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/ddl"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/services"
)

// SchemaToolDeps holds what the schema tools call into.
type SchemaToolDeps struct {
	Service  services.SchemaDescriptionService
	Resolver prompts.Resolver
}

// RegisterSchemaTools adds describe_schema, render_ddl and get_prompt_template.
func RegisterSchemaTools(s *server.MCPServer, deps *SchemaToolDeps) {
	registerDescribeSchemaTool(s, deps)
	registerRenderDDLTool(s, deps)
	registerGetPromptTemplateTool(s, deps)
}

func registerDescribeSchemaTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"describe_schema",
		mcp.WithDescription("Generates descriptions for every field of a BigQuery table schema and renders the DDL that applies them. "+
			"The schema is a JSON or YAML field list as exported by `bq show --schema`."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Field list, bare or wrapped as {\"fields\": [...]}")),
		mcp.WithString("table_name", mcp.Required(), mcp.Description("Fully qualified table, e.g. project.dataset.fhir_Patient")),
		mcp.WithString("resource_label", mcp.Description("Resource the table stores; derived from the table name when omitted")),
		mcp.WithString("mode", mcp.Description("DDL shape"), mcp.Enum(string(ddl.ModeCreate), string(ddl.ModeAlter))),
		mcp.WithString("format", mcp.Description("Schema encoding"), mcp.Enum(string(models.SchemaFormatJSON), string(models.SchemaFormatYAML))),
		mcp.WithBoolean("skip_table_description", mcp.Description("Leave the table description empty")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, errResult := parseSchemaInput(req)
		if errResult != nil {
			return errResult, nil
		}

		result, err := deps.Service.Describe(ctx, &services.DescribeRequest{
			TableName:            in.tableName,
			ResourceLabel:        strings.TrimSpace(req.GetString("resource_label", "")),
			Fields:               in.fields,
			Mode:                 in.mode,
			SkipTableDescription: req.GetBool("skip_table_description", false),
		})
		if err != nil {
			if r := errorResultFor(err); r != nil {
				return r, nil
			}
			return nil, fmt.Errorf("describe schema: %w", err)
		}
		return jsonResult(result)
	})
}

func registerRenderDDLTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"render_ddl",
		mcp.WithDescription("Renders BigQuery DDL from a schema that already carries descriptions. No model is called."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Field list, bare or wrapped as {\"fields\": [...]}")),
		mcp.WithString("table_name", mcp.Required(), mcp.Description("Fully qualified table name")),
		mcp.WithString("table_description", mcp.Description("Description for the table OPTIONS")),
		mcp.WithString("mode", mcp.Description("DDL shape"), mcp.Enum(string(ddl.ModeCreate), string(ddl.ModeAlter))),
		mcp.WithString("format", mcp.Description("Schema encoding"), mcp.Enum(string(models.SchemaFormatJSON), string(models.SchemaFormatYAML))),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, errResult := parseSchemaInput(req)
		if errResult != nil {
			return errResult, nil
		}

		result, err := deps.Service.Render(&services.RenderRequest{
			TableName:        in.tableName,
			Fields:           in.fields,
			TableDescription: req.GetString("table_description", ""),
			Mode:             in.mode,
		})
		if err != nil {
			if r := errorResultFor(err); r != nil {
				return r, nil
			}
			return nil, fmt.Errorf("render ddl: %w", err)
		}
		return jsonResult(result)
	})
}

type promptTemplateResult struct {
	Name   string   `json:"name"`
	Text   string   `json:"text"`
	Params []string `json:"params"`
}

func registerGetPromptTemplateTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"get_prompt_template",
		mcp.WithDescription("Returns a prompt template and the parameters it references"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name, e.g. "+prompts.FieldEnrichmentTemplate)),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		name = strings.TrimSpace(name)

		tmpl, err := deps.Resolver.GetTemplate(ctx, name)
		if err != nil {
			if r := errorResultFor(err); r != nil {
				return r, nil
			}
			return nil, fmt.Errorf("get prompt template %s: %w", name, err)
		}
		params := tmpl.Params()
		if params == nil {
			params = []string{}
		}
		return jsonResult(promptTemplateResult{Name: tmpl.Name, Text: tmpl.Text, Params: params})
	})
}

type schemaInput struct {
	tableName string
	fields    []models.Field
	mode      ddl.Mode
}

// parseSchemaInput reads the parameters shared by the schema tools.
func parseSchemaInput(req mcp.CallToolRequest) (*schemaInput, *mcp.CallToolResult) {
	raw, err := req.RequireString("schema")
	if err != nil {
		return nil, NewErrorResult("invalid_parameters", err.Error())
	}
	tableName, err := req.RequireString("table_name")
	if err != nil {
		return nil, NewErrorResult("invalid_parameters", err.Error())
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, NewErrorResult("invalid_parameters", "table_name must not be empty")
	}

	mode, err := ddl.ParseMode(req.GetString("mode", ""))
	if err != nil {
		return nil, NewErrorResult("invalid_parameters", err.Error())
	}

	format := models.SchemaFormat(strings.ToLower(strings.TrimSpace(req.GetString("format", string(models.SchemaFormatJSON)))))
	if format != models.SchemaFormatJSON && format != models.SchemaFormatYAML {
		return nil, NewErrorResult("invalid_parameters", fmt.Sprintf("unknown schema format %q", format))
	}

	fields, err := models.ParseSchema([]byte(raw), format)
	if err != nil {
		return nil, NewErrorResult("invalid_schema", err.Error())
	}

	return &schemaInput{tableName: tableName, fields: fields, mode: mode}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
