package fieldmap

import "fmt"

type transformOptions struct {
	strict bool
}

// TransformOption configures Transform.
type TransformOption func(*transformOptions)

// WithStrictLookup makes a mapped source field that is missing from the source record
// an error (ErrMissingField) instead of producing Absent.
func WithStrictLookup() TransformOption {
	return func(o *transformOptions) {
		o.strict = true
	}
}

// lookupField reads one source field. Tests replace it to reach the recovery path.
var lookupField = (*Record).Get

// Transform projects and renames source according to mapping. For every (target, source)
// rule, in mapping order, the result holds target -> source[sourceField], or target -> Absent
// when the source record has no such key. The result always has exactly mapping.Len() fields;
// source fields not named by the mapping are dropped. Values are copied shallowly: nested maps
// and slices are shared with source. Neither argument is modified.
//
// A nil source or mapping returns a *TransformError wrapping ErrInvalidInput. A panic while
// reading or writing fields is recovered into a *TransformError wrapping ErrUnexpected.
// No partial result is returned with an error.
func Transform(source *Record, mapping *FieldMapping, opts ...TransformOption) (out *Record, err error) {
	if source == nil {
		return nil, &TransformError{Reason: "source record must not be nil", Err: ErrInvalidInput}
	}
	if mapping == nil {
		return nil, &TransformError{Reason: "field mapping must not be nil", Err: ErrInvalidInput}
	}
	var o transformOptions
	for _, opt := range opts {
		opt(&o)
	}

	var current string
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &TransformError{Field: current, Reason: fmt.Sprint(p), Err: ErrUnexpected}
		}
	}()

	out = NewRecord()
	for target, from := range mapping.All() {
		current = target
		value, ok := lookupField(source, from)
		if !ok {
			if o.strict {
				return nil, &TransformError{
					Field:  target,
					Reason: fmt.Sprintf("source field %q not found", from),
					Err:    ErrMissingField,
				}
			}
			value = Absent
		}
		out.Set(target, value)
	}
	return out, nil
}
