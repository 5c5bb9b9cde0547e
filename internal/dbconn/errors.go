package dbconn

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrUnsupportedDialect = errors.New("unsupported connection type")
	ErrConnection         = errors.New("connection failed")
	ErrIntrospection      = errors.New("introspection failed")
	ErrQuery              = errors.New("query failed")
	ErrValidation         = errors.New("invalid request")
	ErrUnrecognizedResult = errors.New("unrecognized result shape")
)

// Error carries an error kind and the underlying cause. Its message is the
// cause's message unchanged, so driver errors reach the client verbatim.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap tags err with kind unless it already carries a kind.
func wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// ValidationError returns an ErrValidation error with the given message.
func ValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Err: errors.New(msg)}
}
