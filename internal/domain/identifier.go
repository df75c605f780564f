package domain

import "github.com/weiawesome/wes-idgen/internal/generator"

// GenerateIdentifiersRequest represents a generate identifiers request.
// A zero Count generates a single identifier.
type GenerateIdentifiersRequest struct {
	Count      int    `json:"count" binding:"omitempty,min=1,max=1000"`
	LocationID *int64 `json:"location_id"`
	UserID     string `json:"-"`
}

// GenerateIdentifiersResponse represents generated identifiers in API responses.
type GenerateIdentifiersResponse struct {
	SourceID    int64    `json:"source_id"`
	Identifiers []string `json:"identifiers"`
	FirstSeed   int64    `json:"first_seed"`
}

// IdentifierRequest carries a single identifier to validate or parse.
type IdentifierRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	LocationID *int64 `json:"location_id"`
}

// ValidateIdentifierResponse reports whether an identifier satisfies its source.
type ValidateIdentifierResponse struct {
	Identifier string `json:"identifier"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}

// ParseIdentifierResponse holds the seed an identifier was generated from.
type ParseIdentifierResponse struct {
	Identifier string `json:"identifier"`
	Seed       int64  `json:"seed"`
}

// ExportIdentifiersRequest represents an export request.
type ExportIdentifiersRequest struct {
	Count      int    `json:"count" binding:"required,min=1,max=1000"`
	LocationID *int64 `json:"location_id"`
	UserID     string `json:"-"`
}

// ExportIdentifiersResponse describes an exported batch file.
type ExportIdentifiersResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// SourceResponse represents an identifier source in API responses.
type SourceResponse struct {
	ID                  int64               `json:"id"`
	Name                string              `json:"name"`
	Kind                string              `json:"kind"`
	BaseCharacterSet    string              `json:"base_character_set"`
	FirstIdentifierBase string              `json:"first_identifier_base,omitempty"`
	Prefix              string              `json:"prefix,omitempty"`
	Suffix              string              `json:"suffix,omitempty"`
	MinLength           int                 `json:"min_length,omitempty"`
	MaxLength           int                 `json:"max_length,omitempty"`
	LocationPrefixed    bool                `json:"location_prefixed"`
	PrefixProviderRef   string              `json:"prefix_provider,omitempty"`
	IdentifierType      *IdentifierTypeInfo `json:"identifier_type,omitempty"`
	NextSequenceValue   int64               `json:"next_sequence_value"`
}

// IdentifierTypeInfo represents an identifier type in API responses.
type IdentifierTypeInfo struct {
	Name         string `json:"name"`
	Format       string `json:"format,omitempty"`
	ValidatorRef string `json:"validator,omitempty"`
}

// NewSourceResponse builds the API view of a source configuration.
func NewSourceResponse(cfg *generator.SourceConfig, nextSequenceValue int64) SourceResponse {
	kind := string(cfg.Kind)
	if kind == "" {
		kind = string(generator.KindSequential)
	}
	resp := SourceResponse{
		ID:                  cfg.ID,
		Name:                cfg.Name,
		Kind:                kind,
		BaseCharacterSet:    cfg.BaseCharacterSet,
		FirstIdentifierBase: cfg.FirstIdentifierBase,
		Prefix:              cfg.Prefix,
		Suffix:              cfg.Suffix,
		MinLength:           cfg.MinLength,
		MaxLength:           cfg.MaxLength,
		LocationPrefixed:    cfg.LocationPrefixed,
		PrefixProviderRef:   cfg.PrefixProviderRef,
		NextSequenceValue:   nextSequenceValue,
	}
	if t := cfg.IdentifierType; t != nil {
		resp.IdentifierType = &IdentifierTypeInfo{
			Name:         t.Name,
			Format:       t.Format,
			ValidatorRef: t.ValidatorRef,
		}
	}
	return resp
}
