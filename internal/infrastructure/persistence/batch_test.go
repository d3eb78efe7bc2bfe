package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	queries [][]interface{}
	sql     []string
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.sql = append(r.sql, query)
	r.queries = append(r.queries, append([]interface{}(nil), args...))
	return nil, nil
}

func TestBatchInserter_FlushesBySize(t *testing.T) {
	ctx := context.Background()
	rec := &recordingExecer{}
	bi := newBatchInserter(rec, "INSERT INTO t (a, b)", 2, 2)

	require.NoError(t, bi.Add(ctx, 1, "x"))
	require.NoError(t, bi.Add(ctx, 2, "y"))
	require.NoError(t, bi.Add(ctx, 3, "z"))
	require.NoError(t, bi.Flush(ctx))

	require.Len(t, rec.sql, 2)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4)", rec.sql[0])
	assert.Equal(t, []interface{}{1, "x", 2, "y"}, rec.queries[0])
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", rec.sql[1])
}

func TestBatchInserter_EmptyFlushIsNoop(t *testing.T) {
	rec := &recordingExecer{}
	bi := newBatchInserter(rec, "INSERT INTO t (a)", 1, 0)

	require.NoError(t, bi.Flush(context.Background()))
	assert.Empty(t, rec.sql)
}

func TestBatchInserter_WrongFieldCount(t *testing.T) {
	bi := newBatchInserter(&recordingExecer{}, "INSERT INTO t (a, b)", 2, 0)
	assert.Error(t, bi.Add(context.Background(), 1))
}
