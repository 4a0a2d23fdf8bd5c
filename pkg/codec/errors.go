package codec

import "errors"

// DecodeError is returned when bytes handed to Hydrate are not a valid snapshot.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "decode snapshot: " + e.Reason + ": " + e.Err.Error()
	}
	return "decode snapshot: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
