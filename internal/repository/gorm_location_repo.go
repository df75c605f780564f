package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/pkg/log"
)

// GormLocationRepository implements LocationRepository using GORM.
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GORM-based location repository.
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// GetByID loads the location and links every ancestor up to the root.
func (r *GormLocationRepository) GetByID(ctx context.Context, id int64) (*location.Location, error) {
	l := log.Ctx(ctx)
	db := r.db.WithContext(ctx)

	var (
		leaf  *location.Location
		child *location.Location
		seen  = make(map[int64]struct{})
		next  = &id
	)
	for next != nil {
		if _, ok := seen[*next]; ok {
			l.Warn().Int64(log.FieldLocationID, id).Int64("repeated_id", *next).Msg("location hierarchy contains a cycle")
			return nil, ErrLocationCycle
		}
		seen[*next] = struct{}{}

		var model domain.LocationModel
		result := db.Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).First(&model, "id = ?", *next)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				if leaf == nil {
					return nil, ErrLocationNotFound
				}
				// dangling parent reference; treat as root
				break
			}
			l.Error().Err(result.Error).Int64(log.FieldLocationID, *next).Msg("failed to get location")
			return nil, result.Error
		}

		node := model.ToDomain()
		if leaf == nil {
			leaf = node
		} else {
			child.ParentLocation = node
		}
		child = node
		next = model.ParentID
	}

	return leaf, nil
}
