package prompts

// Parameters supplied by the enrichment engine to every template.
const (
	ParamResourceLabel = "resource_label"
	ParamFields        = "fields"
	ParamDetail        = "detail"
	ParamMaxLength     = "max_length"
)

// Aliases for templates written against the older parameter names.
const (
	ParamLegacyResource = "fhir_type"
	ParamLegacyTable    = "table_name"
	ParamLegacySchema   = "json_schema"
)

const defaultTableDescription = `Generate a complete description for a BigQuery table that stores FHIR (Fast Healthcare Interoperability Resources) data.
The table name, which corresponds to a FHIR resource type, is: {resource_label}.

{detail}

The description will be placed in the table's OPTIONS(description="...") clause.
It MUST NOT contain newline or carriage return characters and must stay under {max_length} characters.

Output the description ONLY. Do not include any other text or commentary.`

const defaultFieldEnrichment = `You are an advanced FHIR domain expert with deep knowledge of HL7, FHIR resources and healthcare interoperability standards.

Below is a JSON array with part of the schema of a BigQuery table that stores the FHIR ` + "`{resource_label}`" + ` resource.
Every element has the shape {{"name": ..., "type": ..., "mode": ..., "description": ..., "fields": [...]}}.

Write a description for every field, nested fields included. {detail}
Each description must stay under {max_length} characters and must not contain line breaks.

Requirements:
* Return every field listed below, in the same order, with the same "name", "type", "mode" and nested "fields".
* Do not add, omit, rename or reorder fields.
* Only replace the "description" attribute of each field.
* Output must be a valid JSON array. Do not add extra text, disclaimers, backticks or markdown formatting.

Schema fields:
{fields}

Return only the enriched JSON array.`

// Defaults returns the built-in templates keyed by name. The map is a fresh copy.
func Defaults() map[string]string {
	return map[string]string{
		TableDescriptionTemplate: defaultTableDescription,
		FieldEnrichmentTemplate:  defaultFieldEnrichment,
	}
}
