package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

func TestAuditDescriptions(t *testing.T) {
	fields := []models.Field{
		{Name: "id", Type: "STRING", Description: "This is a normal description with spaces"},
		{Name: "name", Type: "RECORD", Fields: []models.Field{
			{Name: "family", Type: "STRING", Description: "'; DROP TABLE users--"},
		}},
		{Name: "note", Type: "STRING", Description: "1 UNION SELECT * FROM passwords"},
		{Name: "empty", Type: "STRING"},
	}

	findings := AuditDescriptions(fields)

	require.Len(t, findings, 2)
	assert.Equal(t, "name.family", findings[0].Path)
	assert.NotEmpty(t, findings[0].Fingerprint)
	assert.Equal(t, "note", findings[1].Path)
}

func TestAuditDescriptions_Clean(t *testing.T) {
	fields := []models.Field{
		{Name: "id", Type: "STRING", Description: "laptop computers"},
		{Name: "n", Type: "STRING", Description: "This is a normal description with spaces"},
	}
	assert.Empty(t, AuditDescriptions(fields))
}

func TestAuditText(t *testing.T) {
	bad, fp := AuditText("' OR '1'='1")
	assert.True(t, bad)
	assert.NotEmpty(t, fp)

	bad, _ = AuditText("")
	assert.False(t, bad)
}
