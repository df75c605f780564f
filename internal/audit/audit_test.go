package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-idgen/pkg/log"
)

func TestLog_WritesAuditFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	locationID := int64(7)
	Log(ctx, Entry{
		Action:     ActionGenerate,
		UserID:     "clerk-1",
		SourceID:   3,
		LocationID: &locationID,
		Count:      2,
		FirstSeed:  11,
	}, "identifiers generated")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionGenerate, entry[FieldAction])
	assert.Equal(t, "clerk-1", entry[log.FieldUserID])
	assert.EqualValues(t, 3, entry[log.FieldSourceID])
	assert.EqualValues(t, 7, entry[log.FieldLocationID])
	assert.EqualValues(t, 2, entry[log.FieldCount])
	assert.EqualValues(t, 11, entry[log.FieldFirstSeed])
	assert.Equal(t, "identifiers generated", entry["message"])
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	Log(ctx, Entry{Action: ActionSourceUpsert, SourceID: 1, Detail: "Main"}, "source upserted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Main", entry[FieldDetail])
	assert.NotContains(t, entry, log.FieldUserID)
	assert.NotContains(t, entry, log.FieldLocationID)
	assert.NotContains(t, entry, log.FieldCount)
}
