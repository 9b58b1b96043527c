package domain

// Profile is the read-only slice of the identity and profile provider that
// display name resolution needs.
type Profile struct {
	ParticipantID ParticipantID
	Username      string
	Headline      string
}
