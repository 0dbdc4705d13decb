// Package access holds the authorization rules for user generated content.
// The functions are pure predicates over identifiers and relationship facts;
// callers load the relevant state first and must consult the gate before
// performing any mutation.
package access

// CanViewOrActOnContent reports whether actor may view or interact with
// content owned by owner. friends is whether the two users are currently
// friends. Owners always pass.
func CanViewOrActOnContent(actor, owner uint, friends bool) bool {
	return actor == owner || friends
}

// CanDeleteComment reports whether actor may delete a comment written by
// commentAuthor on a post owned by postOwner. The post owner and the comment
// author may delete; current friendship status is irrelevant.
func CanDeleteComment(actor, postOwner, commentAuthor uint) bool {
	return actor == postOwner || actor == commentAuthor
}

// CanDeletePost reports whether actor may delete a post owned by postOwner.
func CanDeletePost(actor, postOwner uint) bool {
	return actor == postOwner
}

// CanSendConversationMessage reports whether actor is a participant of the
// conversation with the given participant set.
func CanSendConversationMessage(actor uint, participants []uint) bool {
	for _, id := range participants {
		if id == actor {
			return true
		}
	}
	return false
}
