package errors

import "fmt"

var (
	// Admission errors, terminal for the connection attempt. The texts are
	// part of the client contract.
	ErrMissingCredential = fmt.Errorf("authentication error")
	ErrInvalidToken      = fmt.Errorf("invalid token")

	ErrUnknownEvent = fmt.Errorf("unknown event")
	ErrSlowConsumer = fmt.Errorf("send buffer full")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
)
