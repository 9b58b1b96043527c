package domain

import appErrors "github.com/needsclan/Gk1/pkg/errors"

// ParticipantID identifies a user. It is opaque and issued by the
// identity provider at account creation.
type ParticipantID string

func (p ParticipantID) String() string { return string(p) }

// ConversationID is derived from the two participants of a conversation.
type ConversationID string

func (c ConversationID) String() string { return string(c) }

// ConversationSeparator joins the sorted participant ids.
const ConversationSeparator = "_"

// NewConversationID returns the canonical id for the conversation between
// a and b. The result does not depend on argument order.
func NewConversationID(a, b ParticipantID) (ConversationID, error) {
	if a == "" || b == "" {
		return "", appErrors.ErrMissingIdentity
	}
	if a == b {
		return "", appErrors.ErrInvalidIdentity
	}
	if b < a {
		a, b = b, a
	}
	return ConversationID(string(a) + ConversationSeparator + string(b)), nil
}
