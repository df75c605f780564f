package audit

import (
	"context"

	"github.com/weiawesome/wes-idgen/pkg/log"
)

// Audit actions for the identifier service.
const (
	ActionGenerate     = "identifiers.generate"
	ActionExport       = "identifiers.export"
	ActionSourceUpsert = "source.upsert"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Entry describes one audited operation.
type Entry struct {
	Action     string
	UserID     string
	SourceID   int64
	LocationID *int64
	Count      int
	FirstSeed  int64
	Detail     string
}

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, e Entry, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, e.Action).
		Int64(log.FieldSourceID, e.SourceID)

	if e.UserID != "" {
		evt = evt.Str(log.FieldUserID, e.UserID)
	}
	if e.LocationID != nil {
		evt = evt.Int64(log.FieldLocationID, *e.LocationID)
	}
	if e.Count > 0 {
		evt = evt.Int(log.FieldCount, e.Count).Int64(log.FieldFirstSeed, e.FirstSeed)
	}
	if e.Detail != "" {
		evt = evt.Str(FieldDetail, e.Detail)
	}
	evt.Msg(msg)
}
