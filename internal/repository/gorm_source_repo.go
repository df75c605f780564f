package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/pkg/log"
)

// GormSourceRepository implements SourceRepository using GORM.
type GormSourceRepository struct {
	db *gorm.DB
}

// NewGormSourceRepository creates a new GORM-based source repository.
func NewGormSourceRepository(db *gorm.DB) *GormSourceRepository {
	return &GormSourceRepository{db: db}
}

// GetByID retrieves a source and its identifier type by ID.
func (r *GormSourceRepository) GetByID(ctx context.Context, id int64) (*generator.SourceConfig, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormSourceRepository) first(ctx context.Context, query string, arg interface{}) (*generator.SourceConfig, error) {
	l := log.Ctx(ctx)

	var model domain.IdentifierSourceModel
	result := r.db.WithContext(ctx).Preload("IdentifierType").First(&model, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		l.Error().Err(result.Error).Interface("key", arg).Msg("failed to get identifier source")
		return nil, result.Error
	}
	cfg := model.ToConfig()
	return &cfg, nil
}

// Upsert creates or updates a source, matched by name, together with its
// identifier type (also matched by name). idType may be nil.
func (r *GormSourceRepository) Upsert(ctx context.Context, source *domain.IdentifierSourceModel, idType *domain.IdentifierTypeModel) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source.IdentifierTypeID = nil
		if idType != nil {
			var existing domain.IdentifierTypeModel
			err := tx.Where("name = ?", idType.Name).First(&existing).Error
			switch {
			case err == nil:
				idType.ID = existing.ID
				if err := tx.Model(&existing).Updates(map[string]interface{}{
					"format":        idType.Format,
					"validator_ref": idType.ValidatorRef,
				}).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(idType).Error; err != nil {
					return err
				}
			default:
				return err
			}
			source.IdentifierTypeID = &idType.ID
		}

		var existing domain.IdentifierSourceModel
		err := tx.Where("name = ?", source.Name).First(&existing).Error
		switch {
		case err == nil:
			source.ID = existing.ID
			source.CreatedAt = existing.CreatedAt
			return tx.Omit("IdentifierType").Save(source).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Omit("IdentifierType").Create(source).Error
		default:
			return err
		}
	})
	if err != nil {
		l.Error().Err(err).Str("source", source.Name).Msg("failed to upsert identifier source")
		return err
	}

	l.Debug().Int64(log.FieldSourceID, source.ID).Str("source", source.Name).Msg("identifier source upserted")
	return nil
}
