package models

import (
	"strings"

	"github.com/jinzhu/inflection"
)

const fhirTablePrefix = "fhir_"

// ResourceLabel derives the resource name a table stores from its fully qualified name.
// "project.dataset.fhir_Patients" becomes "Patient".
func ResourceLabel(tableName string) string {
	name := strings.TrimSpace(tableName)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(name, "`")
	if len(name) > len(fhirTablePrefix) && strings.EqualFold(name[:len(fhirTablePrefix)], fhirTablePrefix) {
		name = name[len(fhirTablePrefix):]
	}
	if name == "" {
		return ""
	}
	return inflection.Singular(name)
}
