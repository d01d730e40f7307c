package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/sanitize"
)

func TestRenderColumn(t *testing.T) {
	tests := []struct {
		name  string
		field models.Field
		want  string
	}{
		{
			name:  "primitive",
			field: models.Field{Name: "id", Type: "STRING"},
			want:  "id STRING",
		},
		{
			name:  "type token upper-cased",
			field: models.Field{Name: "active", Type: "boolean", Mode: models.ModeNullable},
			want:  "active BOOLEAN",
		},
		{
			name:  "repeated primitive",
			field: models.Field{Name: "tags", Type: "STRING", Mode: models.ModeRepeated},
			want:  "tags ARRAY<STRING>",
		},
		{
			name: "children win over declared type",
			field: models.Field{Name: "name", Type: "STRING", Fields: []models.Field{
				{Name: "a", Type: "STRING"},
				{Name: "b", Type: "STRING"},
			}},
			want: "name STRUCT<a STRING, b STRING>",
		},
		{
			name:  "record without children",
			field: models.Field{Name: "ext", Type: "RECORD"},
			want:  "ext STRUCT<>",
		},
		{
			name: "repeated record with nested repeated child and descriptions",
			field: models.Field{Name: "name", Type: "RECORD", Mode: models.ModeRepeated, Description: "Human names", Fields: []models.Field{
				{Name: "family", Type: "STRING", Description: "Family name"},
				{Name: "given", Type: "STRING", Mode: models.ModeRepeated},
			}},
			want: `name ARRAY<STRUCT<family STRING OPTIONS(description="Family name"), given ARRAY<STRING>>> OPTIONS(description="Human names")`,
		},
		{
			name:  "unknown type passes through",
			field: models.Field{Name: "geo", Type: "geography_v2"},
			want:  "geo GEOGRAPHY_V2",
		},
		{
			name:  "required renders like nullable",
			field: models.Field{Name: "id", Type: "INT64", Mode: models.ModeRequired},
			want:  "id INT64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderColumn(tt.field))
		})
	}
}

func TestRenderCreateTable(t *testing.T) {
	fields := []models.Field{
		{Name: "id", Type: "STRING", Description: "Logical id"},
		{Name: "active", Type: "BOOLEAN"},
	}

	got := RenderCreateTable("proj.ds.fhir_Patient", fields, "Patient demographics")

	want := "CREATE OR REPLACE TABLE proj.ds.fhir_Patient (\n" +
		"  id STRING OPTIONS(description=\"Logical id\"),\n" +
		"  active BOOLEAN\n" +
		") OPTIONS(description=\"Patient demographics\");"
	assert.Equal(t, want, got)
}

func TestRenderCreateTable_OneFragmentPerTopLevelField(t *testing.T) {
	var fields []models.Field
	for i := 0; i < 23; i++ {
		fields = append(fields, models.Field{Name: "f" + string(rune('a'+i)), Type: "STRING"})
	}
	fields[5].Fields = []models.Field{{Name: "x", Type: "STRING"}, {Name: "y", Type: "INT64"}}

	got := RenderCreateTable("t", fields, "")

	require.Equal(t, 1, strings.Count(got, "CREATE OR REPLACE TABLE"))
	body := got[strings.Index(got, "(\n  ")+4 : strings.LastIndex(got, "\n)")]
	fragments := strings.Split(body, ",\n  ")
	require.Len(t, fragments, 23)
	for i, frag := range fragments {
		assert.True(t, strings.HasPrefix(frag, fields[i].Name+" "), "fragment %d out of order: %s", i, frag)
	}
}

func TestRenderCreateTable_QuotesTableWithHyphen(t *testing.T) {
	got := RenderCreateTable("hca-sandbox.fhir.Patient", []models.Field{{Name: "id", Type: "STRING"}}, "d")
	assert.True(t, strings.HasPrefix(got, "CREATE OR REPLACE TABLE `hca-sandbox.fhir.Patient` (\n"))
}

func TestRender_DescriptionLiteralAlwaysTerminated(t *testing.T) {
	hostile := []string{
		`He said "hello"`,
		`trailing backslash \`,
		`escaped quote \" inside`,
		"\"); DROP TABLE patients; --",
		"multi\nline\r\ndescription\twith tab",
		`""""`,
		"\\\\\"",
	}

	for _, desc := range hostile {
		t.Run(desc, func(t *testing.T) {
			for _, d := range []string{desc, sanitize.Sanitize(desc)} {
				field := models.Field{Name: "c", Type: "STRING", Description: d}
				sql := RenderCreateTable("t", []models.Field{field}, d)

				literals := extractDescriptionLiterals(t, sql)
				require.Len(t, literals, 2)
				for _, lit := range literals {
					assert.Equal(t, d, unescape(lit))
				}
				assert.True(t, strings.HasSuffix(sql, `");`))
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCreate, m)

	m, err = ParseMode("ALTER")
	require.NoError(t, err)
	assert.Equal(t, ModeAlter, m)

	_, err = ParseMode("drop")
	assert.Error(t, err)
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `a\"b`, EscapeString(`a"b`))
	assert.Equal(t, `a\\b`, EscapeString(`a\b`))
	assert.Equal(t, `a\nb\rc\td`, EscapeString("a\nb\rc\td"))
	assert.Equal(t, "ab", EscapeString("a\x01b"))
	assert.Equal(t, "naïve 日本", EscapeString("naïve 日本"))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "proj.ds.tbl", QuoteTableName("proj.ds.tbl"))
	assert.Equal(t, "`my-proj.ds.tbl`", QuoteTableName("my-proj.ds.tbl"))
	assert.Equal(t, "`already-quoted.ds.t`", QuoteTableName("`already-quoted.ds.t`"))
}

// extractDescriptionLiterals scans every OPTIONS(description="...") clause the way a SQL
// lexer would and fails the test if a literal is unterminated or leaks a raw line break.
func extractDescriptionLiterals(t *testing.T, sql string) []string {
	t.Helper()
	const open = `OPTIONS(description="`
	var literals []string
	rest := sql
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			return literals
		}
		rest = rest[i+len(open):]
		end := -1
		for j := 0; j < len(rest); j++ {
			switch rest[j] {
			case '\\':
				j++
			case '\n', '\r':
				t.Fatalf("raw line break inside literal: %q", sql)
			case '"':
				end = j
			}
			if end >= 0 {
				break
			}
		}
		require.GreaterOrEqual(t, end, 0, "unterminated literal in %q", sql)
		require.Less(t, end+1, len(rest))
		require.Equal(t, byte(')'), rest[end+1], "literal not closed by OPTIONS paren in %q", sql)
		literals = append(literals, rest[:end])
		rest = rest[end+2:]
	}
}

func unescape(lit string) string {
	var b strings.Builder
	for i := 0; i < len(lit); i++ {
		if lit[i] != '\\' || i+1 == len(lit) {
			b.WriteByte(lit[i])
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(lit[i])
		}
	}
	return b.String()
}
