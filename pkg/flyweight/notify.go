package flyweight

// Hook is a typed index notifier for one field. It receives the record's
// offset in its buffer and the value about to be written. Hooks run inline
// on the writer's goroutine before the bytes land, so the buffer still
// holds the previous value while the hook runs. Hooks must not rebind or
// relock the record that invoked them.
type Hook[T any] func(offset int, value T)

// Observer receives notifications for every indexed field of a record,
// keyed by field identity. It is the multiplexed alternative to per-field
// hooks.
type Observer interface {
	IndexedFieldChanged(field Field, offset int, value any)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(field Field, offset int, value any)

// IndexedFieldChanged implements Observer
func (fn ObserverFunc) IndexedFieldChanged(field Field, offset int, value any) {
	fn(field, offset, value)
}

// Observers fans a notification out to several observers in order
type Observers []Observer

// IndexedFieldChanged implements Observer
func (o Observers) IndexedFieldChanged(field Field, offset int, value any) {
	for _, obs := range o {
		obs.IndexedFieldChanged(field, offset, value)
	}
}

func notify[T any](r *Record, f Field, hook Hook[T], value T) {
	if !f.Indexed {
		return
	}
	if hook != nil {
		hook(r.offset, value)
	}
	if r.observer != nil {
		r.observer.IndexedFieldChanged(f, r.offset, value)
	}
}
