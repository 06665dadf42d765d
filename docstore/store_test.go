package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fyerfyer/fyer-docstore/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Options(t *testing.T) {
	testCases := []struct {
		name    string
		opts    []Option
		check   func(t *testing.T, o *StoreOptions)
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o *StoreOptions) {
				assert.Equal(t, DefaultUpdateBatchSize, o.UpdateBatchSize)
				assert.True(t, o.UseCharBufferPooling)
				assert.Equal(t, "public", o.DatabaseSchema)
				assert.NotNil(t, o.WriterPool)
			},
		},
		{
			name: "custom",
			opts: []Option{
				WithUpdateBatchSize(20),
				WithCharBufferPooling(false),
				WithDatabaseSchema("app"),
				WithDialect("postgresql-qmark"),
				WithTypeMapping(reflect.TypeOf(plainCode(0)), "smallint"),
			},
			check: func(t *testing.T, o *StoreOptions) {
				assert.Equal(t, 20, o.UpdateBatchSize)
				assert.False(t, o.UseCharBufferPooling)
				assert.Equal(t, "app", o.DatabaseSchema)
				assert.Equal(t, "?", o.Dialect.Placeholder(1))
				dbType, ok := o.TypeMappings.PgType(reflect.TypeOf(plainCode(0)))
				assert.True(t, ok)
				assert.Equal(t, "smallint", dbType)
			},
		},
		{
			name:    "invalid batch size",
			opts:    []Option{WithUpdateBatchSize(0)},
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			opts:    []Option{WithDialect("oracle")},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewStore(func() Connection { return &fakeConnection{} }, tc.opts...)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, s.Options())
		})
	}
}

func TestStore_Where(t *testing.T) {
	s, err := NewStore(func() Connection { return &fakeConnection{} },
		WithTypeMapping(reflect.TypeOf(plainCode(0)), "smallint"))
	require.NoError(t, err)

	type ticket struct {
		ID   int       `json:"id"`
		Code plainCode `json:"code"`
	}
	fragment, err := s.Where(&ticket{}, Eq(Field("code", reflect.TypeOf(plainCode(0))), plainCode(4)))
	require.NoError(t, err)
	sql, args := ToSQL(fragment)
	assert.Equal(t, "CAST(data ->> 'code' AS smallint) = ?", sql)
	assert.Equal(t, []any{plainCode(4)}, args)

	_, err = s.Where(42, Field("x", boolType))
	assert.Error(t, err)
}

func TestStore_Query(t *testing.T) {
	s, err := NewStore(func() Connection { return &fakeConnection{} }, WithDatabaseSchema("app"))
	require.NoError(t, err)

	q, err := s.Query(&testUser{}, Field("active", boolType), 5)
	require.NoError(t, err)
	assert.Equal(t, "select data from app.mt_doc_test_user where (CAST(data ->> 'active' AS boolean))::Boolean = True limit 5", q.SQL)
	assert.Empty(t, q.Args)
}

func TestStore_DeleteWhere(t *testing.T) {
	conn := &fakeConnection{}
	s, err := NewStore(func() Connection { return conn })
	require.NoError(t, err)

	op, err := s.DeleteWhere(&testUser{}, OrElse(Eq(Field("name", stringType), "a"), Lt(Field("age", intType), 2)))
	require.NoError(t, err)
	del, err := s.Delete(&testUser{}, 7)
	require.NoError(t, err)

	b, err := s.NewUpdateBatch(NewVersionTracker())
	require.NoError(t, err)
	require.NoError(t, b.Add(op, del))
	require.NoError(t, b.Execute(context.Background()))

	require.Len(t, conn.commands, 1)
	cmd := conn.commands[0]
	assert.Equal(t, "delete from public.mt_doc_test_user where (data ->> 'name' = ?) or (CAST(data ->> 'age' AS integer) < ?);\n"+
		"delete from public.mt_doc_test_user where id = ?", cmd.SQL())
	assert.Equal(t, []any{"a", 2, 7}, cmd.Args())

	_, err = s.DeleteWhere(&testUser{}, Field("name", stringType))
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestStore_NewUpdateBatch(t *testing.T) {
	var created int
	s, err := NewStore(func() Connection {
		created++
		return &fakeConnection{}
	})
	require.NoError(t, err)

	_, err = s.NewUpdateBatch(nil)
	assert.ErrorIs(t, err, ErrNilVersionTracker)
	assert.Equal(t, 0, created)

	b1, err := s.NewUpdateBatch(NewVersionTracker())
	require.NoError(t, err)
	b2, err := s.NewUpdateBatch(NewVersionTracker())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.NotEqual(t, b1.ID(), b2.ID())
	assert.NotSame(t, b1.Connection(), b2.Connection())
}

func TestStore_ExecuteBatches(t *testing.T) {
	conns := []*fakeConnection{{}, {}, {execErr: errors.New("boom")}}
	var next int
	s, err := NewStore(func() Connection {
		c := conns[next]
		next++
		return c
	})
	require.NoError(t, err)

	var batches []*UpdateBatch
	for range conns {
		b, err := s.NewUpdateBatch(NewVersionTracker())
		require.NoError(t, err)
		require.NoError(t, b.Add(&noDataCall{rawCall{sql: "select 1"}}))
		batches = append(batches, b)
	}

	require.NoError(t, s.ExecuteBatches(context.Background(), batches[0], batches[1]))
	assert.Len(t, conns[0].commands, 1)
	assert.Len(t, conns[1].commands, 1)

	err = s.ExecuteBatches(context.Background(), batches...)
	assert.EqualError(t, err, "boom")
}

func TestStore_Logger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DebugLevel))

	conn := &fakeConnection{execErr: errors.New("connection refused")}
	s, err := NewStore(func() Connection { return conn }, WithLogger(l))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "document store opened")

	b, err := s.NewUpdateBatch(NewVersionTracker())
	require.NoError(t, err)
	require.NoError(t, b.Add(&noDataCall{rawCall{sql: "select 1"}}))
	assert.Error(t, b.Execute(context.Background()))
	assert.Contains(t, buf.String(), "batch command failed")
	assert.Contains(t, buf.String(), b.ID().String())
}

func TestStore_ConnPool(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()

	config := DefaultPoolConfig()
	config.HealthCheck = func(context.Context, *sql.Conn) bool { return true }
	s, err := Open(mockDB, WithConnPool(config))
	require.NoError(t, err)
	require.NotNil(t, s.pooled)

	mock.ExpectExec("delete from public.mt_doc_test_user where id = $1").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	del, err := s.Delete(&testUser{}, 1)
	require.NoError(t, err)
	b, err := s.NewUpdateBatch(NewVersionTracker())
	require.NoError(t, err)
	require.NoError(t, b.Add(del))
	require.NoError(t, b.Execute(context.Background()))
	require.NoError(t, b.Close())

	assert.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
