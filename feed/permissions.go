package feed

import "chatfeed/models"

// Capability is one action the UI may expose on a message or member.
type Capability uint8

const (
	CapReact Capability = 1 << iota
	CapReply
	CapEdit
	CapDelete
	CapModerate
)

// CapabilitySet is the evaluated set of capabilities for one actor on one
// resource.
type CapabilitySet uint8

func (s CapabilitySet) Has(c Capability) bool { return uint8(s)&uint8(c) != 0 }

// EvaluateCapabilities decides what an actor may do with a message. Any
// member can react and reply; only the author edits or deletes their own
// message; admins additionally hold moderation rights (member role
// changes, removal).
func EvaluateCapabilities(actorRole string, isAuthor bool) CapabilitySet {
	set := CapabilitySet(CapReact | CapReply)
	if isAuthor {
		set |= CapabilitySet(CapEdit | CapDelete)
	}
	if actorRole == models.RoleAdmin {
		set |= CapabilitySet(CapModerate)
	}
	return set
}
