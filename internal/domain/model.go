package domain

import (
	"time"

	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
)

// IdentifierTypeModel is the GORM model for identifier_types table.
type IdentifierTypeModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Format       string `gorm:"type:varchar(255)"`
	ValidatorRef string `gorm:"type:varchar(100)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (IdentifierTypeModel) TableName() string {
	return "identifier_types"
}

// IdentifierSourceModel is the GORM model for identifier_sources table.
type IdentifierSourceModel struct {
	ID                  int64                `gorm:"primaryKey;autoIncrement"`
	Name                string               `gorm:"type:varchar(100);uniqueIndex;not null"`
	Kind                string               `gorm:"type:varchar(30);not null;default:'sequential'"`
	IdentifierTypeID    *int64               `gorm:"index"`
	IdentifierType      *IdentifierTypeModel `gorm:"foreignKey:IdentifierTypeID"`
	BaseCharacterSet    string               `gorm:"type:varchar(255);not null"`
	FirstIdentifierBase string               `gorm:"type:varchar(50)"`
	Prefix              string               `gorm:"type:varchar(50)"`
	Suffix              string               `gorm:"type:varchar(50)"`
	MinLength           int
	MaxLength           int
	LocationPrefixed    bool   `gorm:"default:false"`
	PrefixProviderRef   string `gorm:"type:varchar(100)"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (IdentifierSourceModel) TableName() string {
	return "identifier_sources"
}

// ToConfig converts the model to a generator configuration.
func (m *IdentifierSourceModel) ToConfig() generator.SourceConfig {
	cfg := generator.SourceConfig{
		ID:                  m.ID,
		Name:                m.Name,
		Kind:                generator.Kind(m.Kind),
		BaseCharacterSet:    m.BaseCharacterSet,
		FirstIdentifierBase: m.FirstIdentifierBase,
		Prefix:              m.Prefix,
		Suffix:              m.Suffix,
		MinLength:           m.MinLength,
		MaxLength:           m.MaxLength,
		LocationPrefixed:    m.LocationPrefixed,
		PrefixProviderRef:   m.PrefixProviderRef,
	}
	if m.IdentifierType != nil {
		cfg.IdentifierType = &generator.IdentifierType{
			Name:         m.IdentifierType.Name,
			Format:       m.IdentifierType.Format,
			ValidatorRef: m.IdentifierType.ValidatorRef,
		}
	}
	return cfg
}

// SequenceValueModel is the GORM model for sequence_values table. NextValue
// is the next seed the source will hand out.
type SequenceValueModel struct {
	SourceID  int64 `gorm:"primaryKey;autoIncrement:false"`
	NextValue int64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (SequenceValueModel) TableName() string {
	return "sequence_values"
}

// LocationModel is the GORM model for locations table.
type LocationModel struct {
	ID         int64                    `gorm:"primaryKey;autoIncrement"`
	Name       string                   `gorm:"type:varchar(255);not null"`
	ParentID   *int64                   `gorm:"index"`
	Retired    bool                     `gorm:"default:false"`
	Attributes []LocationAttributeModel `gorm:"foreignKey:LocationID"`
	CreatedAt  time.Time
}

func (LocationModel) TableName() string {
	return "locations"
}

// LocationAttributeModel is the GORM model for location_attributes table.
type LocationAttributeModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	LocationID int64  `gorm:"index;not null"`
	TypeName   string `gorm:"type:varchar(100);not null"`
	Value      string `gorm:"type:varchar(255)"`
	Voided     bool   `gorm:"default:false"`
}

func (LocationAttributeModel) TableName() string {
	return "location_attributes"
}

// ToDomain converts the model to an unlinked location.
func (m *LocationModel) ToDomain() *location.Location {
	loc := &location.Location{ID: m.ID, Name: m.Name}
	for _, a := range m.Attributes {
		loc.Attrs = append(loc.Attrs, location.Attribute{
			TypeName: a.TypeName,
			Value:    a.Value,
			Retired:  a.Voided,
		})
	}
	return loc
}

// Models lists every model for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&IdentifierTypeModel{},
		&IdentifierSourceModel{},
		&SequenceValueModel{},
		&LocationModel{},
		&LocationAttributeModel{},
	}
}
