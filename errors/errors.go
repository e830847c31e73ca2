package errors

import "fmt"

var (
	// ErrUnknownUser is returned by mutating operations addressing an
	// id the identity directory has never seen.
	ErrUnknownUser = fmt.Errorf("unknown user")

	// ErrInvalidCommand covers missing or malformed command fields.
	// No persistence side effect happens once it is raised.
	ErrInvalidCommand = fmt.Errorf("invalid command")

	// ErrUnknownRequestType is answered explicitly instead of dropping
	// the request.
	ErrUnknownRequestType = fmt.Errorf("unknown request type")

	// ErrMalformedRequest terminates the offending connection only.
	ErrMalformedRequest = fmt.Errorf("malformed request")
)
