package flyweight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteFields() []Field {
	return []Field{
		{Name: "id", Kind: KindInt64, Offset: 8, Length: 8, Key: true},
		{Name: "venue", Kind: KindInt16, Offset: 16, Length: 2, Key: true},
		{Name: "symbol", Kind: KindASCII, Offset: 18, Length: 6, Indexed: true},
		{Name: "price", Kind: KindInt32, Offset: 24, Length: 4, Indexed: true},
		{Name: "active", Kind: KindBool, Offset: 28, Length: 1, Indexed: true},
	}
}

func quoteSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("Quote", 7001, 4, quoteFields()...)
	require.NoError(t, err)
	return s
}

func TestNewSchema_Layout(t *testing.T) {
	s := quoteSchema(t)

	assert.Equal(t, 29, s.TotalLength())
	assert.True(t, s.FixedLength())
	assert.Equal(t, int16(7001), s.Header().TypeID)
	assert.Equal(t, int16(4), s.Header().GroupID)
	assert.Equal(t, int32(29), s.Header().RecordLength)

	f, ok := s.Field("symbol")
	require.True(t, ok)
	assert.Equal(t, FieldID(2), f.ID)
	assert.Equal(t, 24, f.End())

	_, ok = s.Field("missing")
	assert.False(t, ok)

	assert.Len(t, s.KeyFields(), 2)
	assert.Len(t, s.IndexedFields(), 3)
	assert.Equal(t, "price", s.FieldByID(3).Name)
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := map[string][]Field{
		"no fields": nil,
		"gap after header": {
			{Name: "id", Kind: KindInt32, Offset: 9, Length: 4, Key: true},
		},
		"overlap": {
			{Name: "id", Kind: KindInt32, Offset: 8, Length: 4, Key: true},
			{Name: "other", Kind: KindInt32, Offset: 10, Length: 4},
		},
		"width mismatch": {
			{Name: "id", Kind: KindInt32, Offset: 8, Length: 8, Key: true},
		},
		"empty string field": {
			{Name: "name", Kind: KindASCII, Offset: 8, Length: 0},
		},
		"duplicate name": {
			{Name: "id", Kind: KindInt32, Offset: 8, Length: 4},
			{Name: "id", Kind: KindInt32, Offset: 12, Length: 4},
		},
		"unnamed": {
			{Kind: KindInt32, Offset: 8, Length: 4},
		},
		"no key field": {
			{Name: "id", Kind: KindInt32, Offset: 8, Length: 4},
			{Name: "price", Kind: KindInt64, Offset: 12, Length: 8},
		},
		"unknown kind": {
			{Name: "id", Offset: 8, Length: 4},
		},
	}

	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewSchema("Broken", 1, 1, fields...)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestMustSchema_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustSchema("", 1, 1)
	})
}

func TestSchema_FieldsIsCopy(t *testing.T) {
	s := quoteSchema(t)
	fields := s.Fields()
	fields[0].Name = "changed"

	f, ok := s.Field("id")
	require.True(t, ok)
	assert.Equal(t, "id", f.Name)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "INT", KindInt32.String())
	assert.Equal(t, "FIXED_STRING", KindASCII.String())
	assert.Equal(t, "UNKNOWN", Kind(0).String())
}
