package service

import (
	"context"

	"github.com/weiawesome/wes-idgen/internal/domain"
)

// MaxBatchSize bounds a single generate or export request.
const MaxBatchSize = 1000

// IdentifierService defines the interface for identifier business logic.
type IdentifierService interface {
	GenerateIdentifiers(ctx context.Context, sourceID int64, req *domain.GenerateIdentifiersRequest) (*domain.GenerateIdentifiersResponse, error)
	ValidateIdentifier(ctx context.Context, sourceID int64, req *domain.IdentifierRequest) (*domain.ValidateIdentifierResponse, error)
	ParseIdentifier(ctx context.Context, sourceID int64, req *domain.IdentifierRequest) (*domain.ParseIdentifierResponse, error)
	ExportIdentifiers(ctx context.Context, sourceID int64, req *domain.ExportIdentifiersRequest) (*domain.ExportIdentifiersResponse, error)
	GetSource(ctx context.Context, sourceID int64) (*domain.SourceResponse, error)
	UpsertSource(ctx context.Context, source *domain.IdentifierSourceModel, idType *domain.IdentifierTypeModel) error
}
