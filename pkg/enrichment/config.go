package enrichment

import (
	"fmt"
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/sanitize"
)

// LevelOfDetail controls how elaborate the generated descriptions are.
type LevelOfDetail string

const (
	LevelConcise        LevelOfDetail = "concise"
	LevelDetailed       LevelOfDetail = "detailed"
	LevelMostDetailed   LevelOfDetail = "most_detailed"
	LevelDataGovernance LevelOfDetail = "data_governance"
)

// Levels lists the supported levels of detail.
var Levels = []LevelOfDetail{LevelConcise, LevelDetailed, LevelMostDetailed, LevelDataGovernance}

// ParseLevelOfDetail maps a config value to a level. Empty selects LevelConcise.
// Spaces and dashes are accepted in place of underscores ("most detailed").
func ParseLevelOfDetail(s string) (LevelOfDetail, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "" {
		return LevelConcise, nil
	}
	for _, l := range Levels {
		if string(l) == norm {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: level of detail %q", apperrors.ErrUnsupported, s)
}

// Instruction returns the sentence handed to templates as the detail parameter.
func (l LevelOfDetail) Instruction() string {
	switch l {
	case LevelDetailed:
		return "Provide a detailed description that explains the meaning of each field and how it relates to the resource."
	case LevelMostDetailed:
		return "Provide the most detailed description possible, covering meaning, typical values, cardinality and relationships to other resources."
	case LevelDataGovernance:
		return "Write the description for a data governance catalog: state the business meaning, whether the field can hold personal or protected health information, and its data quality expectations."
	default:
		return "Provide a concise description of one or two sentences."
	}
}

// Defaults for Config.
const (
	DefaultChunkSize     = 10
	DefaultMaxConcurrent = 1
	DefaultTemperature   = 0.2
)

// DefaultSystemMessage is sent with every field enrichment and table description request.
const DefaultSystemMessage = "You are a FHIR and BigQuery metadata expert. Follow the output format instructions exactly."

// Config tunes the enrichment engine.
type Config struct {
	ChunkSize            int     // top-level fields per request
	MaxConcurrent        int     // chunk requests in flight; 1 is sequential
	MaxDescriptionLength int     // sanitizer ceiling in characters
	Temperature          float64 // sampling temperature passed to the service
	LevelOfDetail        LevelOfDetail
	// FallbackToOriginal keeps a failed chunk's original fields instead of dropping them.
	FallbackToOriginal bool
	SystemMessage      string
}

// DefaultConfig returns the sequential reference configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:            DefaultChunkSize,
		MaxConcurrent:        DefaultMaxConcurrent,
		MaxDescriptionLength: sanitize.DefaultMaxLength,
		Temperature:          DefaultTemperature,
		LevelOfDetail:        LevelConcise,
		SystemMessage:        DefaultSystemMessage,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.MaxDescriptionLength <= 0 {
		c.MaxDescriptionLength = d.MaxDescriptionLength
	}
	if c.LevelOfDetail == "" {
		c.LevelOfDetail = d.LevelOfDetail
	}
	if c.SystemMessage == "" {
		c.SystemMessage = d.SystemMessage
	}
	return c
}
