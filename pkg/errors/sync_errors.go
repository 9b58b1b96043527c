package errors

import (
	"fmt"
	"strings"
)

var (
	ErrInvalidIdentity = New(CodeInvalidIdentity, "a conversation needs two distinct participants")
	ErrSelfReference   = New(CodeInvalidIdentity, "cannot create a contact with yourself")
	ErrMissingIdentity = New(CodeInvalidIdentity, "participant id is empty")
	ErrEmptyMessage    = New(CodeEmptyMessage, "message text is empty")
	ErrSessionNotReady = New(CodeInvalidState, "conversation session is not ready")
)

// PartialSync reports that a message was stored but the mirrors of the
// listed owners could not be updated. The message stays durable.
func PartialSync(failedOwners []string, cause error) error {
	return Wrap(CodePartialSync,
		fmt.Sprintf("message stored but mirror sync failed for %s", strings.Join(failedOwners, ", ")),
		cause)
}
