package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Quote(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple",
			input:    "user_name",
			expected: `"user_name"`,
		},
		{
			name:     "embedded quote",
			input:    `we"ird`,
			expected: `"we""ird"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Postgresql{}.Quote(tc.input))
		})
	}
}

func TestDialect_JsonOperators(t *testing.T) {
	d := Postgresql{}
	assert.Equal(t, "data -> 'address'", d.JsonExtract("data", "address"))
	assert.Equal(t, "data ->> 'o''brien'", d.JsonExtractText("data", "o'brien"))
	assert.Equal(t, "CAST(x AS integer)", d.Cast("x", "integer"))
	assert.Equal(t, "$3", d.Placeholder(3))
}

func TestRebind(t *testing.T) {
	testCases := []struct {
		name     string
		dialect  Dialect
		input    string
		expected string
	}{
		{
			name:     "postgresql",
			dialect:  Postgresql{},
			input:    "update t set data = ? where id = ?;\nselect f(doc => ?)",
			expected: "update t set data = $1 where id = $2;\nselect f(doc => $3)",
		},
		{
			name:     "question mark inside literal",
			dialect:  Postgresql{},
			input:    "select '?', \"a?b\" from t where x = ? and y = 'it''s ?'",
			expected: "select '?', \"a?b\" from t where x = $1 and y = 'it''s ?'",
		},
		{
			name:     "qmark dialect keeps sql",
			dialect:  BaseDialect{},
			input:    "select ? from t",
			expected: "select ? from t",
		},
		{
			name:     "nil dialect",
			input:    "select ?",
			expected: "select ?",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Rebind(tc.dialect, tc.input))
		})
	}
}

func TestGetDialect(t *testing.T) {
	d, err := GetDialect("postgresql")
	require.NoError(t, err)
	assert.Equal(t, Postgresql{}, d)

	d, err = GetDialect("postgresql-qmark")
	require.NoError(t, err)
	assert.Equal(t, "?", d.Placeholder(1))

	_, err = GetDialect("mysql")
	assert.Error(t, err)
}
