package docstore

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type HTTPAccessLog struct {
	RequestID string `json:"request_id" docstore:"id"`
	Path      string `json:"path"`
}

func TestNewDocumentMapping(t *testing.T) {
	testCases := []struct {
		name       string
		doc        any
		schema     string
		wantTable  string
		wantUpsert string
		wantErr    bool
	}{
		{
			name:       "pointer",
			doc:        &testUser{},
			wantTable:  "public.mt_doc_test_user",
			wantUpsert: "public.mt_upsert_test_user",
		},
		{
			name:       "value with schema",
			doc:        HTTPAccessLog{},
			schema:     "logs",
			wantTable:  "logs.mt_doc_http_access_log",
			wantUpsert: "logs.mt_upsert_http_access_log",
		},
		{
			name:    "not a struct",
			doc:     42,
			wantErr: true,
		},
		{
			name:    "nil",
			doc:     nil,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewDocumentMapping(tc.doc, tc.schema)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTable, m.QualifiedTableName())
			assert.Equal(t, tc.wantUpsert, m.UpsertFunction().QualifiedName())
		})
	}
}

func TestDocumentMapping_Identity(t *testing.T) {
	m, err := NewDocumentMapping(&testUser{}, "")
	require.NoError(t, err)

	id, err := m.Identity(&testUser{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	id, err = m.Identity(testUser{ID: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, id)

	_, err = m.Identity(&testAddress{})
	assert.Error(t, err)

	logMapping, err := NewDocumentMapping(&HTTPAccessLog{}, "")
	require.NoError(t, err)
	id, err = logMapping.Identity(&HTTPAccessLog{RequestID: "r-1"})
	require.NoError(t, err)
	assert.Equal(t, "r-1", id)

	addrMapping, err := NewDocumentMapping(&testAddress{}, "")
	require.NoError(t, err)
	_, err = addrMapping.Identity(&testAddress{})
	assert.Error(t, err)
}

func TestDocumentMapping_Member(t *testing.T) {
	m, err := NewDocumentMapping(&testUser{}, "")
	require.NoError(t, err)

	member, err := m.Member("Address", "Zip")
	require.NoError(t, err)
	assert.Equal(t, "zip", member.Name)
	assert.Equal(t, reflect.TypeOf(0), member.Type)
	owner, ok := member.Owner.(*Member)
	require.True(t, ok)
	assert.Equal(t, "address", owner.Name)
	assert.Nil(t, owner.Owner)

	// 没有 json 标签时使用字段名
	member, err = m.Member("Score")
	require.NoError(t, err)
	assert.Equal(t, "Score", member.Name)

	_, err = m.Member("Secret")
	assert.Error(t, err)
	_, err = m.Member("Missing")
	assert.Error(t, err)
	_, err = m.Member("Name", "Length")
	assert.Error(t, err)
	_, err = m.Member()
	assert.Error(t, err)

	_, ok = m.Field("Secret")
	assert.False(t, ok)
	f, ok := m.Field("CreatedAt")
	require.True(t, ok)
	assert.Equal(t, "created_at", f.JSONName)
}

func TestMappingCache(t *testing.T) {
	cache := newMappingCache("app")
	first, err := cache.get(&testUser{})
	require.NoError(t, err)
	second, err := cache.get(&testUser{})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "app.mt_doc_test_user", first.QualifiedTableName())
}
