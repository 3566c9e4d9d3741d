package feed

import (
	"chatfeed/models"
	"chatfeed/store"
)

// StoreRemote adapts the backing store's mutation surface to the
// coordinator, bound to the acting member.
type StoreRemote struct {
	Store    *store.Store
	MemberID string
}

func (r StoreRemote) CreateMessage(req models.CreateMessageRequest) (string, error) {
	msg, err := r.Store.CreateMessage(r.MemberID, req)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (r StoreRemote) UpdateMessage(id, body string) error {
	return r.Store.UpdateMessage(id, body)
}

func (r StoreRemote) DeleteMessage(id string) error {
	return r.Store.DeleteMessage(id)
}

func (r StoreRemote) ToggleReaction(messageID, value string) error {
	_, err := r.Store.ToggleReaction(messageID, r.MemberID, value)
	return err
}
