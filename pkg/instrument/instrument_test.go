package instrument

import (
	"testing"

	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/flyweight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaMatchesLayout(t *testing.T) {
	assert.Equal(t, BufferLength, Schema.TotalLength())
	assert.True(t, FixedLength)

	expected := []struct {
		name    string
		offset  int
		length  int
		key     bool
		indexed bool
	}{
		{"id", 8, 4, true, false},
		{"securityId", 12, 4, false, true},
		{"cusip", 16, 9, false, true},
		{"enabled", 25, 1, false, true},
		{"minSize", 26, 4, false, false},
	}
	fields := Schema.Fields()
	require.Len(t, fields, len(expected))
	for i, e := range expected {
		assert.Equal(t, e.name, fields[i].Name)
		assert.Equal(t, e.offset, fields[i].Offset, e.name)
		assert.Equal(t, e.length, fields[i].Length, e.name)
		assert.Equal(t, e.key, fields[i].Key, e.name)
		assert.Equal(t, e.indexed, fields[i].Indexed, e.name)
	}
}

func TestInstrument_Scenario(t *testing.T) {
	buf := buffer.Allocate(BufferLength)
	inst := New()

	require.NoError(t, inst.Bind(buf, 0))
	require.NoError(t, inst.WriteSecurityID(42))
	require.NoError(t, inst.WriteCusip("912828U40"))
	require.NoError(t, inst.WriteEnabled(true))
	require.NoError(t, inst.WriteMinSize(1000))

	assert.False(t, inst.ValidateHeader(), "header not yet written")
	require.NoError(t, inst.WriteHeader())
	assert.True(t, inst.ValidateHeader())

	assert.Equal(t, int32(42), inst.ReadSecurityID())
	assert.Equal(t, "912828U40", inst.ReadCusip())
	assert.True(t, inst.ReadEnabled())
	assert.Equal(t, int32(1000), inst.ReadMinSize())

	expected := []byte{
		0x71, 0x17, 0x03, 0x00, 0x1E, 0x00, 0x00, 0x00, // header
		0x00, 0x00, 0x00, 0x00, // id
		0x2A, 0x00, 0x00, 0x00, // securityId
		'9', '1', '2', '8', '2', '8', 'U', '4', '0', // cusip
		0x01,                   // enabled
		0xE8, 0x03, 0x00, 0x00, // minSize
	}
	assert.Equal(t, expected, buf.Bytes(0, BufferLength))
}

func TestInstrument_CusipTooLong(t *testing.T) {
	buf := buffer.Allocate(BufferLength)
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buf, 0))
	require.NoError(t, inst.WriteCusip("912828U40"))

	before := append([]byte(nil), buf.Bytes(0, BufferLength)...)
	var notified bool
	inst.SetIndexNotifierForCusip(func(int, string) { notified = true })

	err := inst.WriteCusip("912828U401")
	assert.ErrorIs(t, err, ErrValueTooLong)
	assert.False(t, notified)
	assert.Equal(t, before, buf.Bytes(0, BufferLength))
	assert.Equal(t, "912828U40", inst.ReadCusip())
}

func TestInstrument_CusipPadding(t *testing.T) {
	buf := buffer.Allocate(BufferLength)
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buf, 0))

	var notified string
	inst.SetIndexNotifierForCusip(func(_ int, v string) { notified = v })
	require.NoError(t, inst.WriteCusipWithPadding("ABC"))

	assert.Equal(t, "      ABC", notified)
	assert.Equal(t, "      ABC", string(buf.Bytes(CusipOffset, CusipLength)))
	assert.Equal(t, "ABC", inst.ReadCusip())
}

func TestInstrument_OutOfBounds(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		offset   int
	}{
		{"too small", BufferLength - 1, 0},
		{"offset pushes past end", BufferLength, 1},
		{"negative offset", 64, -1},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := New()
			err := inst.Bind(buffer.Allocate(tt.capacity), tt.offset)
			assert.ErrorIs(t, err, ErrOutOfBounds)
			assert.Equal(t, flyweight.Unbound, inst.State())
		})
	}

	inst := New()
	assert.NoError(t, inst.Bind(buffer.Allocate(BufferLength+2), 2))
}

func TestInstrument_ReadOnlyBuffer(t *testing.T) {
	data := make([]byte, BufferLength)
	writer := New()
	require.NoError(t, writer.BindAndInitialize(buffer.NewMutable(data), 0))
	require.NoError(t, writer.WriteMinSize(5))

	inst := New()
	require.NoError(t, inst.Bind(buffer.NewReadOnly(data), 0))
	assert.False(t, inst.IsMutable())
	assert.True(t, inst.ValidateHeader())
	assert.Equal(t, int32(5), inst.ReadMinSize())

	assert.ErrorIs(t, inst.WriteMinSize(6), ErrImmutableBuffer)
	assert.ErrorIs(t, inst.WriteHeader(), ErrImmutableBuffer)
	assert.Equal(t, int32(5), inst.ReadMinSize())
}

func TestInstrument_KeyLock(t *testing.T) {
	buf := buffer.Allocate(BufferLength)
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buf, 0))
	require.NoError(t, inst.WriteID(7))

	inst.LockKeyID()
	assert.ErrorIs(t, inst.WriteID(8), ErrKeyLocked)
	assert.Equal(t, int32(7), inst.ReadID())
	assert.NoError(t, inst.WriteSecurityID(1))

	require.NoError(t, inst.Bind(buf, 0))
	assert.NoError(t, inst.WriteID(8))
	assert.Equal(t, int32(8), inst.ReadID())
}

func TestInstrument_HooksSeeOldValue(t *testing.T) {
	buf := buffer.Allocate(BufferLength * 2)
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buf, BufferLength))
	require.NoError(t, inst.WriteSecurityID(1))
	require.NoError(t, inst.WriteEnabled(false))

	view := inst.View()
	type change struct {
		offset   int
		old, new any
	}
	var changes []change

	inst.SetIndexNotifierForSecurityID(func(offset int, v int32) {
		changes = append(changes, change{offset, view.ReadSecurityID(), v})
	})
	inst.SetIndexNotifierForEnabled(func(offset int, v bool) {
		changes = append(changes, change{offset, view.ReadEnabled(), v})
	})

	require.NoError(t, inst.WriteSecurityID(2))
	require.NoError(t, inst.WriteEnabled(true))
	require.NoError(t, inst.WriteMinSize(3)) // not indexed

	assert.Equal(t, []change{
		{BufferLength, int32(1), int32(2)},
		{BufferLength, false, true},
	}, changes)
}

func TestInstrument_ObserverAndHooks(t *testing.T) {
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buffer.Allocate(BufferLength), 0))

	var order []string
	inst.SetIndexNotifierForSecurityID(func(int, int32) { order = append(order, "hook") })
	inst.SetObserver(flyweight.ObserverFunc(func(f flyweight.Field, _ int, _ any) {
		order = append(order, "observer:"+f.Name)
	}))

	require.NoError(t, inst.WriteSecurityID(9))
	assert.Equal(t, []string{"hook", "observer:securityId"}, order)
}

func TestInstrument_SnapshotRoundTrip(t *testing.T) {
	snap := Snapshot{ID: 11, SecurityID: 42, Cusip: "912828U40", Enabled: true, MinSize: 1000}

	inst := New()
	require.NoError(t, inst.BindAndInitialize(buffer.Allocate(BufferLength), 0))
	require.NoError(t, inst.CopyFrom(snap))
	assert.Equal(t, snap, inst.Snapshot())
	assert.Equal(t, snap, inst.View().Snapshot())

	inst.LockKey()
	snap.MinSize = 5
	require.NoError(t, inst.CopyFrom(snap))
	assert.Equal(t, int32(5), inst.ReadMinSize())

	snap.ID = 12
	assert.ErrorIs(t, inst.CopyFrom(snap), ErrKeyLocked)
}

func TestInstrument_Constants(t *testing.T) {
	inst := New()
	assert.Equal(t, int16(6001), inst.TypeID())
	assert.Equal(t, int16(3), inst.GroupID())
	assert.Equal(t, 30, inst.BufferLength())
	assert.False(t, inst.SupportsTransactions())
}

func TestView_ReadOnlyOverMutable(t *testing.T) {
	buf := buffer.Allocate(BufferLength)
	inst := New()
	require.NoError(t, inst.BindAndInitialize(buf, 0))
	require.NoError(t, inst.WriteCusip("037833100"))

	v := NewView()
	require.NoError(t, v.Bind(buf, 0))
	assert.True(t, v.ValidateHeader())
	assert.Equal(t, "037833100", v.ReadCusip())

	// writes through the instrument are visible to the view
	require.NoError(t, inst.WriteCusip("594918104"))
	assert.Equal(t, "594918104", v.ReadCusip())

	// the view's record never reports mutability
	assert.False(t, v.rec.IsMutable())
}

func TestView_Unbound(t *testing.T) {
	v := New().View()
	assert.False(t, v.IsBound())
	assert.False(t, v.ValidateHeader())
	assert.Equal(t, Snapshot{}, v.Snapshot())
	assert.False(t, View{}.IsBound())
}
