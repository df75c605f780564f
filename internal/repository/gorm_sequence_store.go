package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/pkg/log"
)

// GormSequenceStore keeps sequence values in the sequence_values table.
type GormSequenceStore struct {
	db *gorm.DB
}

// NewGormSequenceStore creates a new GORM-based sequence store.
func NewGormSequenceStore(db *gorm.DB) *GormSequenceStore {
	return &GormSequenceStore{db: db}
}

// SequenceValue returns the next seed of a source. ok is false when the
// source has never produced an identifier.
func (s *GormSequenceStore) SequenceValue(ctx context.Context, sourceID int64) (int64, bool, error) {
	var model domain.SequenceValueModel
	err := s.db.WithContext(ctx).First(&model, "source_id = ?", sourceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to read sequence value")
		return 0, false, err
	}
	return model.NextValue, true, nil
}

// Reserve takes count consecutive seeds inside a single transaction. The row
// of a new source is inserted at start first, so concurrent first
// reservations queue on the same row lock instead of racing to create it.
func (s *GormSequenceStore) Reserve(ctx context.Context, sourceID, count, start int64) (Reservation, error) {
	if count <= 0 {
		return Reservation{}, ErrInvalidCount
	}

	var res Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.SequenceValueModel{
			SourceID:  sourceID,
			NextValue: start,
		})
		if created.Error != nil {
			return created.Error
		}

		var model domain.SequenceValueModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "source_id = ?", sourceID).Error; err != nil {
			return err
		}

		res = Reservation{First: model.NextValue, Count: count}
		if created.RowsAffected == 0 {
			res.Initialized = true
			res.Previous = model.NextValue
		}
		return tx.Model(&domain.SequenceValueModel{}).
			Where("source_id = ?", sourceID).
			Update("next_value", gorm.Expr("next_value + ?", count)).Error
	})
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Int64(log.FieldCount, count).Msg("failed to reserve sequence values")
		return Reservation{}, err
	}
	return res, nil
}
