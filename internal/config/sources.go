package config

import "github.com/weiawesome/wes-idgen/internal/domain"

// Models converts a bootstrap entry to the persisted source and type.
func (s SourceConfig) Models() (*domain.IdentifierSourceModel, *domain.IdentifierTypeModel) {
	kind := s.Kind
	if kind == "" {
		kind = "sequential"
	}
	source := &domain.IdentifierSourceModel{
		Name:                s.Name,
		Kind:                kind,
		BaseCharacterSet:    s.BaseCharacterSet,
		FirstIdentifierBase: s.FirstIdentifierBase,
		Prefix:              s.Prefix,
		Suffix:              s.Suffix,
		MinLength:           s.MinLength,
		MaxLength:           s.MaxLength,
		LocationPrefixed:    s.LocationPrefixed,
		PrefixProviderRef:   s.PrefixProvider,
	}
	if s.IdentifierType == nil || s.IdentifierType.Name == "" {
		return source, nil
	}
	return source, &domain.IdentifierTypeModel{
		Name:         s.IdentifierType.Name,
		Format:       s.IdentifierType.Format,
		ValidatorRef: s.IdentifierType.Validator,
	}
}
