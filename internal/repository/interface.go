package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
)

var (
	ErrSourceNotFound   = errors.New("identifier source not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationCycle    = errors.New("location hierarchy contains a cycle")
	ErrInvalidCount     = errors.New("reservation count must be positive")
)

// SourceRepository defines the interface for identifier source persistence.
type SourceRepository interface {
	GetByID(ctx context.Context, id int64) (*generator.SourceConfig, error)
	Upsert(ctx context.Context, source *domain.IdentifierSourceModel, idType *domain.IdentifierTypeModel) error
}

// LocationRepository loads locations together with their ancestors.
type LocationRepository interface {
	GetByID(ctx context.Context, id int64) (*location.Location, error)
}

// Reservation is a block of consecutive seeds handed to one caller.
type Reservation struct {
	First       int64
	Count       int64
	Initialized bool // a sequence value existed before this reservation
	Previous    int64
}

// SequenceValue returns the next-value snapshot observed before the
// reservation, satisfying generator.SequenceReader for the seeds it covers.
func (r Reservation) SequenceValue(_ context.Context, _ int64) (int64, bool, error) {
	return r.Previous, r.Initialized, nil
}

// SequenceStore allocates seeds for identifier sources.
type SequenceStore interface {
	SequenceValue(ctx context.Context, sourceID int64) (int64, bool, error)
	// Reserve atomically takes count seeds. A source without a stored value
	// starts at start.
	Reserve(ctx context.Context, sourceID, count, start int64) (Reservation, error)
}
