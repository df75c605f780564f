package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-idgen/internal/audit"
	"github.com/weiawesome/wes-idgen/internal/cache"
	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/codec"
	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/internal/metrics"
	"github.com/weiawesome/wes-idgen/internal/repository"
	"github.com/weiawesome/wes-idgen/pkg/log"
	"github.com/weiawesome/wes-idgen/pkg/pubsub"
	"github.com/weiawesome/wes-idgen/pkg/storage"
)

var (
	ErrSourceNotFound   = errors.New("identifier source not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrInvalidCount     = fmt.Errorf("count must be between 1 and %d", MaxBatchSize)
)

// Dependencies are the collaborators of the identifier service. Cache,
// Publisher and Storage are optional.
type Dependencies struct {
	Sources    repository.SourceRepository
	Locations  repository.LocationRepository
	Sequences  repository.SequenceStore
	Cache      cache.SourceCache
	CacheTTL   time.Duration
	Publisher  pubsub.Publisher
	Storage    storage.Storage
	Metrics    *metrics.Metrics
	Validators *checkdigit.Registry
	Providers  *location.Providers

	ExportKeyPrefix string
	ExportURLExpiry time.Duration
}

// identifierServiceImpl implements IdentifierService interface.
type identifierServiceImpl struct {
	deps  Dependencies
	group singleflight.Group
}

// NewIdentifierService creates a new identifier service.
func NewIdentifierService(deps Dependencies) IdentifierService {
	if deps.Cache == nil {
		deps.Cache = cache.NoopSourceCache{}
	}
	if deps.Publisher == nil {
		deps.Publisher = pubsub.NoopPublisher{}
	}
	if deps.Validators == nil {
		deps.Validators = checkdigit.NewRegistry()
	}
	if deps.Providers == nil {
		deps.Providers = location.NewProviders()
	}
	if deps.ExportURLExpiry <= 0 {
		deps.ExportURLExpiry = time.Hour
	}
	return &identifierServiceImpl{deps: deps}
}

// GenerateIdentifiers reserves count seeds and turns each into an
// identifier. Either the whole batch is returned or an error.
func (s *identifierServiceImpl) GenerateIdentifiers(ctx context.Context, sourceID int64, req *domain.GenerateIdentifiersRequest) (*domain.GenerateIdentifiersResponse, error) {
	start := time.Now()
	if s.deps.Metrics != nil {
		defer s.deps.Metrics.ObserveGenerate(start)
	}

	count := req.Count
	if count == 0 {
		count = 1
	}

	cfg, identifiers, first, err := s.generate(ctx, sourceID, count, req.LocationID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, cfg, identifiers, first, req.LocationID)
	audit.Log(ctx, audit.Entry{
		Action:     audit.ActionGenerate,
		UserID:     req.UserID,
		SourceID:   sourceID,
		LocationID: req.LocationID,
		Count:      len(identifiers),
		FirstSeed:  first,
	}, "identifiers generated")

	return &domain.GenerateIdentifiersResponse{
		SourceID:    sourceID,
		Identifiers: identifiers,
		FirstSeed:   first,
	}, nil
}

// ValidateIdentifier reports whether identifier could have been issued by
// the source. Format and check digit violations are a negative verdict, not
// an error.
func (s *identifierServiceImpl) ValidateIdentifier(ctx context.Context, sourceID int64, req *domain.IdentifierRequest) (*domain.ValidateIdentifierResponse, error) {
	cfg, gen, ctx, err := s.prepare(ctx, sourceID, req.LocationID, s.deps.Sequences)
	if err != nil {
		return nil, err
	}

	resp := &domain.ValidateIdentifierResponse{Identifier: req.Identifier, Valid: true}
	if err := gen.Validate(ctx, req.Identifier); err != nil {
		if !errors.Is(err, generator.ErrFormatMismatch) && !errors.Is(err, generator.ErrCheckDigitMismatch) {
			return nil, err
		}
		resp.Valid = false
		resp.Reason = err.Error()
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.IncValidation(cfg.Name, resp.Valid)
	}
	return resp, nil
}

// ParseIdentifier recovers the seed of an identifier.
func (s *identifierServiceImpl) ParseIdentifier(ctx context.Context, sourceID int64, req *domain.IdentifierRequest) (*domain.ParseIdentifierResponse, error) {
	_, gen, ctx, err := s.prepare(ctx, sourceID, req.LocationID, s.deps.Sequences)
	if err != nil {
		return nil, err
	}

	seed, err := gen.Parse(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}
	return &domain.ParseIdentifierResponse{Identifier: req.Identifier, Seed: seed}, nil
}

// ExportIdentifiers generates a batch and stores it as a text file with
// one identifier per line.
func (s *identifierServiceImpl) ExportIdentifiers(ctx context.Context, sourceID int64, req *domain.ExportIdentifiersRequest) (*domain.ExportIdentifiersResponse, error) {
	if s.deps.Storage == nil {
		return nil, errors.New("export storage is not configured")
	}
	l := log.Ctx(ctx)

	cfg, identifiers, first, err := s.generate(ctx, sourceID, req.Count, req.LocationID)
	if err != nil {
		return nil, err
	}

	content := strings.Join(identifiers, "\n") + "\n"
	key := s.exportKey(sourceID)
	if err := s.deps.Storage.Write(ctx, key, strings.NewReader(content), int64(len(content)), "text/plain; charset=utf-8"); err != nil {
		l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Str("key", key).Msg("failed to write export")
		return nil, err
	}

	url, err := s.deps.Storage.GetURL(ctx, key, s.deps.ExportURLExpiry)
	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("failed to build export url")
		return nil, err
	}

	s.publish(ctx, cfg, identifiers, first, req.LocationID)
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncExport()
	}
	audit.Log(ctx, audit.Entry{
		Action:     audit.ActionExport,
		UserID:     req.UserID,
		SourceID:   sourceID,
		LocationID: req.LocationID,
		Count:      len(identifiers),
		FirstSeed:  first,
		Detail:     key,
	}, "identifiers exported")

	return &domain.ExportIdentifiersResponse{Key: key, URL: url, Count: len(identifiers)}, nil
}

// GetSource returns the source configuration and the seed it will use next.
func (s *identifierServiceImpl) GetSource(ctx context.Context, sourceID int64) (*domain.SourceResponse, error) {
	cfg, err := s.loadSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	next, ok, err := s.deps.Sequences.SequenceValue(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if next, err = startSeed(cfg); err != nil {
			return nil, err
		}
	}

	resp := domain.NewSourceResponse(cfg, next)
	return &resp, nil
}

// UpsertSource checks that the source can build a generator and stores it.
func (s *identifierServiceImpl) UpsertSource(ctx context.Context, source *domain.IdentifierSourceModel, idType *domain.IdentifierTypeModel) error {
	cfg := source.ToConfig()
	if idType != nil {
		cfg.IdentifierType = &generator.IdentifierType{
			Name:         idType.Name,
			Format:       idType.Format,
			ValidatorRef: idType.ValidatorRef,
		}
	}
	if _, err := s.newGenerator(&cfg, s.deps.Sequences); err != nil {
		return fmt.Errorf("source %s: %w", source.Name, err)
	}
	if _, err := startSeed(&cfg); err != nil {
		return fmt.Errorf("source %s: %w", source.Name, err)
	}

	if err := s.deps.Sources.Upsert(ctx, source, idType); err != nil {
		return err
	}
	if err := s.deps.Cache.Delete(ctx, s.deps.Cache.BuildKeyByID(source.ID)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int64(log.FieldSourceID, source.ID).Msg("failed to invalidate source cache")
	}

	audit.Log(ctx, audit.Entry{
		Action:   audit.ActionSourceUpsert,
		SourceID: source.ID,
		Detail:   source.Name,
	}, "identifier source upserted")
	return nil
}

func (s *identifierServiceImpl) generate(ctx context.Context, sourceID int64, count int, locationID *int64) (*generator.SourceConfig, []string, int64, error) {
	if count < 1 || count > MaxBatchSize {
		return nil, nil, 0, ErrInvalidCount
	}

	// the reservation is filled in once the generator is known to be usable
	snapshot := &reservationReader{}
	cfg, gen, ctx, err := s.prepare(ctx, sourceID, locationID, snapshot)
	if err != nil {
		s.countFailure(sourceID, cfg, err)
		return nil, nil, 0, err
	}

	first, err := startSeed(cfg)
	if err != nil {
		s.countFailure(sourceID, cfg, err)
		return nil, nil, 0, err
	}

	res, err := s.deps.Sequences.Reserve(ctx, sourceID, int64(count), first)
	if err != nil {
		s.countFailure(sourceID, cfg, err)
		return nil, nil, 0, err
	}
	snapshot.res = res

	identifiers := make([]string, 0, count)
	for i := int64(0); i < res.Count; i++ {
		id, err := gen.IdentifierForSeed(ctx, res.First+i)
		if err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).
				Int64("seed", res.First+i).
				Msg("identifier generation failed; reserved seeds are skipped")
			s.countFailure(sourceID, cfg, err)
			return nil, nil, 0, err
		}
		identifiers = append(identifiers, id)
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.AddGenerated(cfg.Name, len(identifiers))
	}
	return cfg, identifiers, res.First, nil
}

// prepare loads the source, resolves the current location into ctx and
// builds the generator.
func (s *identifierServiceImpl) prepare(ctx context.Context, sourceID int64, locationID *int64, sequences generator.SequenceReader) (*generator.SourceConfig, generator.Generator, context.Context, error) {
	ctx = log.WithSource(ctx, sourceID)
	cfg, err := s.loadSource(ctx, sourceID)
	if err != nil {
		return nil, nil, ctx, err
	}

	ctx, err = s.withLocation(ctx, locationID)
	if err != nil {
		return cfg, nil, ctx, err
	}

	gen, err := s.newGenerator(cfg, sequences)
	if err != nil {
		return cfg, nil, ctx, err
	}
	return cfg, gen, ctx, nil
}

func (s *identifierServiceImpl) newGenerator(cfg *generator.SourceConfig, sequences generator.SequenceReader) (generator.Generator, error) {
	return generator.New(*cfg, generator.Dependencies{
		Sequences:  sequences,
		Validators: s.deps.Validators,
		Providers:  s.deps.Providers,
	})
}

// loadSource reads a source through the cache; concurrent misses for the
// same source share one repository call.
func (s *identifierServiceImpl) loadSource(ctx context.Context, sourceID int64) (*generator.SourceConfig, error) {
	l := log.Ctx(ctx)
	key := s.deps.Cache.BuildKeyByID(sourceID)

	if key != "" {
		cfg, err := s.deps.Cache.Get(ctx, key)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Int64(log.FieldSourceID, sourceID).Msg("source cache read failed")
		}
	}

	v, err, _ := s.group.Do("source:"+strconv.FormatInt(sourceID, 10), func() (interface{}, error) {
		cfg, err := s.deps.Sources.GetByID(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if key != "" {
			if err := s.deps.Cache.Set(ctx, key, cfg, s.deps.CacheTTL); err != nil {
				l.Warn().Err(err).Int64(log.FieldSourceID, sourceID).Msg("source cache write failed")
			}
		}
		return cfg, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSourceNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	// callers must not share a config through singleflight
	cfg := *v.(*generator.SourceConfig)
	return &cfg, nil
}

// withLocation loads the location and its ancestors and makes it the
// current location of ctx. A nil locationID leaves ctx unchanged.
func (s *identifierServiceImpl) withLocation(ctx context.Context, locationID *int64) (context.Context, error) {
	if locationID == nil {
		return ctx, nil
	}
	if s.deps.Locations == nil {
		return ctx, ErrLocationNotFound
	}

	v, err, _ := s.group.Do("location:"+strconv.FormatInt(*locationID, 10), func() (interface{}, error) {
		return s.deps.Locations.GetByID(ctx, *locationID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLocationNotFound):
			return ctx, ErrLocationNotFound
		case errors.Is(err, repository.ErrLocationCycle):
			return ctx, fmt.Errorf("%w: %w", generator.ErrInvalidConfiguration, err)
		default:
			return ctx, err
		}
	}

	ctx = log.WithLocation(ctx, *locationID)
	return location.WithCurrentLocation(ctx, v.(*location.Location)), nil
}

func (s *identifierServiceImpl) publish(ctx context.Context, cfg *generator.SourceConfig, identifiers []string, first int64, locationID *int64) {
	l := log.Ctx(ctx)

	event, err := pubsub.NewEvent(pubsub.EventIdentifiersGenerated, cfg.ID, pubsub.GeneratedPayload{
		SourceID:    cfg.ID,
		SourceName:  cfg.Name,
		FirstSeed:   first,
		Identifiers: identifiers,
		LocationID:  locationID,
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to build generated event")
		return
	}
	if err := s.deps.Publisher.Publish(ctx, pubsub.GeneratedChannel(cfg.ID), event); err != nil {
		l.Warn().Err(err).Int64(log.FieldSourceID, cfg.ID).Msg("failed to publish generated event")
	}
}

func (s *identifierServiceImpl) exportKey(sourceID int64) string {
	name := fmt.Sprintf("%d/%s-%s.txt", sourceID, time.Now().UTC().Format("20060102T150405Z"), uuid.New().String())
	if s.deps.ExportKeyPrefix == "" {
		return name
	}
	return strings.TrimSuffix(s.deps.ExportKeyPrefix, "/") + "/" + name
}

func (s *identifierServiceImpl) countFailure(sourceID int64, cfg *generator.SourceConfig, err error) {
	if s.deps.Metrics == nil {
		return
	}
	name := strconv.FormatInt(sourceID, 10)
	if cfg != nil {
		name = cfg.Name
	}
	s.deps.Metrics.IncFailure(name, FailureReason(err))
}

// startSeed is the first seed of a source that has never generated:
// the decoded first identifier base when positive, otherwise 1.
func startSeed(cfg *generator.SourceConfig) (int64, error) {
	if cfg.FirstIdentifierBase == "" {
		return 1, nil
	}
	seed, err := codec.Decode(cfg.FirstIdentifierBase, cfg.BaseCharacterSet)
	if err != nil {
		return 0, fmt.Errorf("%w: first identifier base: %w", generator.ErrInvalidConfiguration, err)
	}
	if seed == 0 || seed > uint64(1<<63-1) {
		return 1, nil
	}
	return int64(seed), nil
}

// reservationReader answers the generator's sequence query from the
// snapshot taken when seeds were reserved.
type reservationReader struct {
	res repository.Reservation
}

func (r *reservationReader) SequenceValue(ctx context.Context, sourceID int64) (int64, bool, error) {
	return r.res.SequenceValue(ctx, sourceID)
}

// FailureReason classifies err for metrics and logs.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrLocationNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, location.ErrNoLocationInContext):
		return "no_location"
	case errors.Is(err, location.ErrPrefixNotFound):
		return "prefix_not_found"
	case errors.Is(err, generator.ErrFormatMismatch):
		return "format_mismatch"
	case errors.Is(err, generator.ErrCheckDigit), errors.Is(err, generator.ErrCheckDigitMismatch):
		return "check_digit"
	case errors.Is(err, generator.ErrInvalidConfiguration), errors.Is(err, location.ErrUnknownProvider):
		return "invalid_configuration"
	default:
		return "internal"
	}
}
