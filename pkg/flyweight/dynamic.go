package flyweight

import "github.com/cockroachdb/errors"

// Get reads a field by name, returning int16, int32, int64, bool or string
func (r *Record) Get(name string) (any, error) {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%s.%s", r.schema.Name, name)
	}
	switch f.Kind {
	case KindInt16:
		return r.Int16(f), nil
	case KindInt32:
		return r.Int32(f), nil
	case KindInt64:
		return r.Int64(f), nil
	case KindBool:
		return r.Bool(f), nil
	default:
		return r.ASCII(f), nil
	}
}

// Set writes a field by name. The value's type must match the field kind;
// only the observer is notified since no typed hook is available here.
func (r *Record) Set(name string, value any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%s.%s", r.schema.Name, name)
	}

	switch v := value.(type) {
	case int16:
		if f.Kind == KindInt16 {
			return r.PutInt16(f, v, nil)
		}
	case int32:
		if f.Kind == KindInt32 {
			return r.PutInt32(f, v, nil)
		}
	case int64:
		if f.Kind == KindInt64 {
			return r.PutInt64(f, v, nil)
		}
	case bool:
		if f.Kind == KindBool {
			return r.PutBool(f, v, nil)
		}
	case string:
		if f.Kind == KindASCII {
			return r.PutASCII(f, v, nil)
		}
	}
	return errors.Wrapf(ErrKindMismatch, "%s.%s is %s, got %T", r.schema.Name, f.Name, f.Kind, value)
}

// Values reads every field into a map keyed by field name
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.schema.fields))
	for _, f := range r.schema.fields {
		v, _ := r.Get(f.Name)
		out[f.Name] = v
	}
	return out
}
