package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentQuery_Build(t *testing.T) {
	mapping, err := NewDocumentMapping(&testUser{}, "")
	require.NoError(t, err)

	testCases := []struct {
		name      string
		q         *DocumentQuery
		dialect   Dialect
		wantQuery *Query
		wantErr   error
	}{
		{
			name:      "no where",
			q:         NewDocumentQuery(mapping),
			wantQuery: &Query{SQL: "select data from public.mt_doc_test_user"},
		},
		{
			name: "where and limit",
			q: NewDocumentQuery(mapping).
				Where(AndAlso(Gt(Field("age", intType), 18), StartsWith(Field("name", stringType), "J"))).
				Limit(10),
			wantQuery: &Query{
				SQL:  "select data from public.mt_doc_test_user where (CAST(data ->> 'age' AS integer) > $1) and (data ->> 'name' like $2) limit 10",
				Args: []any{18, "J%"},
			},
		},
		{
			name:    "qmark dialect",
			q:       NewDocumentQuery(mapping).Where(Eq(Field("name", stringType), "x")),
			dialect: BaseDialect{},
			wantQuery: &Query{
				SQL:  "select data from public.mt_doc_test_user where data ->> 'name' = ?",
				Args: []any{"x"},
			},
		},
		{
			name:    "untranslatable",
			q:       NewDocumentQuery(mapping).Where(Negate(Eq(Field("age", intType), 1))),
			wantErr: ErrUnsupportedNode,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := tc.q.Build(NewTranslator(tc.dialect, nil))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantQuery, query)
		})
	}
}
