// Package index maintains the Instrument secondary indexes. Indexes are fed
// by the flyweight's index notifications, which fire before the new bytes
// are written, so each hook can read the previous value from the buffer and
// move the record from its old key to its new one.
package index

import (
	"context"
	"iter"

	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/codec"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"golang.org/x/sync/errgroup"
)

// Stats summarizes index sizes
type Stats struct {
	SecurityEntries int    `json:"security_entries"`
	CusipEntries    int    `json:"cusip_entries"`
	CusipKeys       int    `json:"cusip_keys"`
	Enabled         uint64 `json:"enabled"`
	Disabled        uint64 `json:"disabled"`
}

// Manager owns the secondary indexes for records stored in one buffer
type Manager struct {
	buf   buffer.Reader
	order int

	security *SecurityIndex
	cusip    *CusipIndex
	enabled  *EnabledIndex
}

// NewManager creates empty indexes over records stored in buf
func NewManager(buf buffer.Reader, order int) *Manager {
	return &Manager{
		buf:      buf,
		order:    order,
		security: NewSecurityIndex(order),
		cusip:    NewCusipIndex(),
		enabled:  NewEnabledIndex(),
	}
}

// Security returns the securityId index
func (m *Manager) Security() *SecurityIndex { return m.security }

// Cusip returns the cusip index
func (m *Manager) Cusip() *CusipIndex { return m.cusip }

// Enabled returns the enabled index
func (m *Manager) Enabled() *EnabledIndex { return m.enabled }

// previous binds a read-only view at offset to read the value about to be replaced
func (m *Manager) previous(offset int) (instrument.View, bool) {
	v := instrument.NewView()
	if err := v.Bind(m.buf, offset); err != nil {
		return v, false
	}
	return v, true
}

// Attach registers the index hooks on inst. inst must be bound to the
// managed buffer.
func (m *Manager) Attach(inst *instrument.Instrument) {
	inst.SetIndexNotifierForSecurityID(m.onSecurityID)
	inst.SetIndexNotifierForCusip(m.onCusip)
	inst.SetIndexNotifierForEnabled(m.onEnabled)
}

// Detach removes the index hooks from inst
func (m *Manager) Detach(inst *instrument.Instrument) {
	inst.SetIndexNotifierForSecurityID(nil)
	inst.SetIndexNotifierForCusip(nil)
	inst.SetIndexNotifierForEnabled(nil)
}

func (m *Manager) onSecurityID(offset int, value int32) {
	if old, ok := m.previous(offset); ok {
		m.security.Remove(old.ReadSecurityID(), offset)
	}
	m.security.Add(value, offset)
}

func (m *Manager) onCusip(offset int, value string) {
	if old, ok := m.previous(offset); ok {
		m.cusip.Remove(old.ReadCusip(), offset)
	}
	m.cusip.Add(codec.TrimASCII(value), offset)
}

func (m *Manager) onEnabled(offset int, value bool) {
	if old, ok := m.previous(offset); ok {
		m.enabled.Remove(old.ReadEnabled(), offset)
	}
	m.enabled.Add(value, offset)
}

// Insert indexes every indexed field of v at its current value
func (m *Manager) Insert(v instrument.View) {
	off := v.Offset()
	m.security.Add(v.ReadSecurityID(), off)
	m.cusip.Add(v.ReadCusip(), off)
	m.enabled.Add(v.ReadEnabled(), off)
}

// Remove drops v's current values from every index
func (m *Manager) Remove(v instrument.View) {
	off := v.Offset()
	m.security.Remove(v.ReadSecurityID(), off)
	m.cusip.Remove(v.ReadCusip(), off)
	m.enabled.Remove(v.ReadEnabled(), off)
}

type entry struct {
	offset     int
	securityID int32
	cusip      string
	enabled    bool
}

// Rebuild discards the indexes and rebuilds them from records. Records are
// read once, then each index is built on its own goroutine. The views
// yielded by records may be reused between iterations. Rebuild must not
// run concurrently with writes to attached instruments.
func (m *Manager) Rebuild(ctx context.Context, records iter.Seq[instrument.View]) error {
	var entries []entry
	for v := range records {
		entries = append(entries, entry{
			offset:     v.Offset(),
			securityID: v.ReadSecurityID(),
			cusip:      v.ReadCusip(),
			enabled:    v.ReadEnabled(),
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	security := NewSecurityIndex(m.order)
	cusip := NewCusipIndex()
	enabled := NewEnabledIndex()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fill(ctx, entries, func(e entry) { security.Add(e.securityID, e.offset) })
	})
	g.Go(func() error {
		return fill(ctx, entries, func(e entry) { cusip.Add(e.cusip, e.offset) })
	})
	g.Go(func() error {
		return fill(ctx, entries, func(e entry) { enabled.Add(e.enabled, e.offset) })
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m.security, m.cusip, m.enabled = security, cusip, enabled
	return nil
}

func fill(ctx context.Context, entries []entry, add func(entry)) error {
	for i, e := range entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		add(e)
	}
	return nil
}

// Stats returns the current index sizes
func (m *Manager) Stats() Stats {
	return Stats{
		SecurityEntries: m.security.Len(),
		CusipEntries:    m.cusip.Len(),
		CusipKeys:       m.cusip.Keys(),
		Enabled:         m.enabled.Count(true),
		Disabled:        m.enabled.Count(false),
	}
}
