package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "rejects", []string{"reason", "source"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"rejects"}, []string{"reason", "source"}).WillReturnResult(3)

	rows := [][]any{{"transform error", "lever"}, {"non-us", "greenhouse"}, {"non-us", "lever"}}
	n, err := CopyFrom(context.Background(), mock, "rejects", []string{"reason", "source"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"rejects"}, []string{"reason"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"transform error"}}
	_, err = CopyFrom(context.Background(), mock, "rejects", []string{"reason"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO rejects")
	assert.NoError(t, mock.ExpectationsWereMet())
}
