package settings

// Kind classifies a settings failure.
type Kind int

const (
	// KindNotLoaded means no configuration snapshot is available.
	KindNotLoaded Kind = iota + 1
	// KindInvalid means the configuration was read but failed to parse,
	// decrypt, or validate.
	KindInvalid
	// KindProjection means the exposed view could not be built from a snapshot.
	KindProjection
)

func (k Kind) String() string {
	switch k {
	case KindNotLoaded:
		return "not loaded"
	case KindInvalid:
		return "invalid"
	case KindProjection:
		return "projection"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrNotLoaded  = &Error{Kind: KindNotLoaded}
	ErrInvalid    = &Error{Kind: KindInvalid}
	ErrProjection = &Error{Kind: KindProjection}
)

// Error is returned by every settings read path.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "settings " + e.Kind.String()
	}
	return "settings " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
