package index

import (
	"context"
	"testing"

	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, buf *buffer.Mutable, m *Manager, slot int, s instrument.Snapshot) *instrument.Instrument {
	t.Helper()
	inst := instrument.New()
	require.NoError(t, inst.BindAndInitialize(buf, slot*instrument.BufferLength))
	m.Attach(inst)
	require.NoError(t, inst.CopyFrom(s))
	return inst
}

func TestManager_HooksMoveEntries(t *testing.T) {
	buf := buffer.Allocate(instrument.BufferLength * 4)
	m := NewManager(buf, 4)

	a := seed(t, buf, m, 0, instrument.Snapshot{ID: 1, SecurityID: 42, Cusip: "912828U40", Enabled: true})
	seed(t, buf, m, 1, instrument.Snapshot{ID: 2, SecurityID: 42, Cusip: "037833100"})

	assert.Equal(t, []int{0, 30}, m.Security().Equal(42))
	assert.Equal(t, []int{0}, m.Cusip().Exact("912828U40"))
	assert.Equal(t, []int{0}, m.Enabled().Offsets(true))

	require.NoError(t, a.WriteSecurityID(7))
	require.NoError(t, a.WriteCusipWithPadding("ABC"))
	require.NoError(t, a.WriteEnabled(false))

	assert.Equal(t, []int{30}, m.Security().Equal(42))
	assert.Equal(t, []int{0}, m.Security().Equal(7))
	assert.Empty(t, m.Cusip().Exact("912828U40"))
	assert.Equal(t, []int{0}, m.Cusip().Exact("ABC"))
	assert.Empty(t, m.Enabled().Offsets(true))
	assert.Equal(t, []int{0, 30}, m.Enabled().Offsets(false))

	// a rejected write leaves the indexes alone
	assert.ErrorIs(t, a.WriteCusip("0123456789"), instrument.ErrValueTooLong)
	assert.Equal(t, []int{0}, m.Cusip().Exact("ABC"))
}

func TestManager_InsertRemove(t *testing.T) {
	buf := buffer.Allocate(instrument.BufferLength * 2)
	m := NewManager(buf, 4)
	inst := seed(t, buf, m, 1, instrument.Snapshot{ID: 9, SecurityID: 5, Cusip: "X", Enabled: true})

	m.Remove(inst.View())
	assert.Equal(t, Stats{}, m.Stats())

	m.Insert(inst.View())
	assert.Equal(t, Stats{SecurityEntries: 1, CusipEntries: 1, CusipKeys: 1, Enabled: 1}, m.Stats())
}

func TestManager_Rebuild(t *testing.T) {
	buf := buffer.Allocate(instrument.BufferLength * 3)
	writer := NewManager(buf, 4)
	for i := 0; i < 3; i++ {
		seed(t, buf, writer, i, instrument.Snapshot{
			ID: int32(i), SecurityID: int32(i % 2), Cusip: "C" + string(rune('A'+i)), Enabled: i != 1,
		})
	}

	m := NewManager(buf, 4)
	records := func(yield func(instrument.View) bool) {
		v := instrument.NewView()
		for i := 0; i < 3; i++ {
			require.NoError(t, v.Bind(buf, i*instrument.BufferLength))
			if !yield(v) {
				return
			}
		}
	}
	require.NoError(t, m.Rebuild(context.Background(), records))

	assert.Equal(t, writer.Stats(), m.Stats())
	assert.Equal(t, []int{0, 60}, m.Security().Equal(0))
	assert.Equal(t, []int{0, 30, 60}, m.Cusip().Prefix("C"))
	assert.Equal(t, []int{30}, m.Enabled().Offsets(false))
}

func TestManager_RebuildCancelled(t *testing.T) {
	buf := buffer.Allocate(instrument.BufferLength)
	m := NewManager(buf, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Rebuild(ctx, func(func(instrument.View) bool) {})
	assert.ErrorIs(t, err, context.Canceled)
}
