package ddl

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// Finding is a description whose text looks like a SQL injection payload.
// Escaping keeps the rendered DDL valid regardless; findings are reported for review.
type Finding struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
	Description string `json:"description"`
}

// AuditDescriptions checks every description in the tree and returns the suspicious ones
// in pre-order.
func AuditDescriptions(fields []models.Field) []Finding {
	var findings []Finding
	models.Walk(fields, func(path []string, f *models.Field) bool {
		if f.Description == "" {
			return true
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(f.Description); isSQLi {
			findings = append(findings, Finding{
				Path:        strings.Join(path, "."),
				Fingerprint: string(fingerprint),
				Description: f.Description,
			})
		}
		return true
	})
	return findings
}

// AuditText checks a single description, such as the table description.
func AuditText(text string) (bool, string) {
	if text == "" {
		return false, ""
	}
	isSQLi, fingerprint := libinjection.IsSQLi(text)
	return isSQLi, string(fingerprint)
}
