package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/weiawesome/wes-idgen/internal/cache"
	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/internal/repository"
	"github.com/weiawesome/wes-idgen/pkg/pubsub"
)

type fakeSources struct {
	mu      sync.Mutex
	byID    map[int64]generator.SourceConfig
	nextID  int64
	getHits int
}

func newFakeSources(cfgs ...generator.SourceConfig) *fakeSources {
	f := &fakeSources{byID: make(map[int64]generator.SourceConfig)}
	for _, c := range cfgs {
		f.byID[c.ID] = c
		if c.ID > f.nextID {
			f.nextID = c.ID
		}
	}
	return f
}

func (f *fakeSources) GetByID(_ context.Context, id int64) (*generator.SourceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getHits++
	cfg, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrSourceNotFound
	}
	return &cfg, nil
}

func (f *fakeSources) Upsert(_ context.Context, source *domain.IdentifierSourceModel, idType *domain.IdentifierTypeModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, cfg := range f.byID {
		if cfg.Name == source.Name {
			source.ID = id
		}
	}
	if source.ID == 0 {
		f.nextID++
		source.ID = f.nextID
	}
	source.IdentifierType = idType
	f.byID[source.ID] = source.ToConfig()
	return nil
}

type fakeLocations struct {
	byID map[int64]*location.Location
	err  error
}

func (f *fakeLocations) GetByID(_ context.Context, id int64) (*location.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	loc, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrLocationNotFound
	}
	return loc, nil
}

type fakeSequences struct {
	mu     sync.Mutex
	values map[int64]int64
	err    error
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{values: make(map[int64]int64)}
}

func (f *fakeSequences) SequenceValue(_ context.Context, sourceID int64) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[sourceID]
	return v, ok, nil
}

func (f *fakeSequences) Reserve(_ context.Context, sourceID, count, start int64) (repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return repository.Reservation{}, f.err
	}
	v, ok := f.values[sourceID]
	res := repository.Reservation{First: start, Count: count}
	if ok {
		res = repository.Reservation{First: v, Count: count, Initialized: true, Previous: v}
	}
	f.values[sourceID] = res.First + count
	return res, nil
}

type publishedEvent struct {
	channel string
	event   *pubsub.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{channel: channel, event: event})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]generator.SourceConfig
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]generator.SourceConfig)}
}

func (f *fakeCache) Get(_ context.Context, key string) (*generator.SourceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &cfg, nil
}

func (f *fakeCache) Set(_ context.Context, key string, cfg *generator.SourceConfig, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = *cfg
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCache) BuildKeyByID(id int64) string {
	return fmt.Sprintf("source:%d", id)
}

func (f *fakeCache) Close() error { return nil }

var errStore = errors.New("store unavailable")
