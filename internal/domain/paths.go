package domain

import "strings"

// Logical substrate paths. Changes are published under these paths and
// watchers subscribe to a path prefix.
const (
	InboxRoot    = "conversations-by-owner"
	MessagesRoot = "messages"
)

func InboxPath(owner ParticipantID) string {
	return InboxRoot + "/" + string(owner)
}

func MirrorPath(owner ParticipantID, conversationID ConversationID) string {
	return InboxPath(owner) + "/" + string(conversationID)
}

func MessagesPath(conversationID ConversationID) string {
	return MessagesRoot + "/" + string(conversationID)
}

func MessagePath(conversationID ConversationID, id MessageID) string {
	return MessagesPath(conversationID) + "/" + string(id)
}

// PathWithin reports whether path equals prefix or lies below it.
func PathWithin(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
