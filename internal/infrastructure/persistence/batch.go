package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// batchInserter накапливает строки и вставляет их одним запросом
// INSERT ... VALUES (...), (...). Вызывающий обязан сделать Flush.
type batchInserter struct {
	exec        execer
	query       string
	batchSize   int
	fieldsCount int
	values      []interface{}
	rowCount    int
}

func newBatchInserter(exec execer, baseQuery string, fieldsCount, batchSize int) *batchInserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &batchInserter{
		exec:        exec,
		query:       baseQuery,
		batchSize:   batchSize,
		fieldsCount: fieldsCount,
		values:      make([]interface{}, 0, batchSize*fieldsCount),
	}
}

func (bi *batchInserter) Add(ctx context.Context, rowValues ...interface{}) error {
	if len(rowValues) != bi.fieldsCount {
		return fmt.Errorf("batch insert: expected %d fields, got %d", bi.fieldsCount, len(rowValues))
	}

	bi.values = append(bi.values, rowValues...)
	bi.rowCount++
	if bi.rowCount >= bi.batchSize {
		return bi.Flush(ctx)
	}
	return nil
}

func (bi *batchInserter) Flush(ctx context.Context) error {
	if bi.rowCount == 0 {
		return nil
	}

	if _, err := bi.exec.ExecContext(ctx, bi.statement(), bi.values...); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}

	bi.values = bi.values[:0]
	bi.rowCount = 0
	return nil
}

// statement строит запрос с плейсхолдерами ($1, $2), ($3, $4), ...
func (bi *batchInserter) statement() string {
	var b strings.Builder
	b.WriteString(bi.query)
	b.WriteString(" VALUES ")
	for i := 0; i < bi.rowCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < bi.fieldsCount; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*bi.fieldsCount+j+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}
