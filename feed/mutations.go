package feed

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chatfeed/models"
)

// ErrPending is returned when a mutation is re-invoked while the same
// invocation is still in flight. The duplicate issues no remote call.
var ErrPending = errors.New("feed: mutation already pending")

// Notifier surfaces mutation outcomes to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Remote is the backing store's mutation surface, bound to the current
// member.
type Remote interface {
	CreateMessage(req models.CreateMessageRequest) (string, error)
	UpdateMessage(id, body string) error
	DeleteMessage(id string) error
	ToggleReaction(messageID, value string) error
}

// Uploader is the two-step attachment upload surface: obtain a target,
// then transfer bytes to it for a storage id.
type Uploader interface {
	RequestUploadTarget() (string, error)
	Upload(target, contentType string, data []byte) (string, error)
}

// Attachment is an image to upload before a send.
type Attachment struct {
	ContentType string
	Data        []byte
}

type mutationKind int

const (
	kindCreate mutationKind = iota
	kindEdit
	kindDelete
	kindReact
)

type pendingKey struct {
	kind mutationKind
	id   string
}

// Coordinator wraps the remote mutations with pending gating, the delete
// confirmation gate and success/failure notifications. A pending flag is
// set before each remote call and cleared unconditionally after it, so
// the same invocation can never run twice concurrently; ordering between
// different mutation kinds is not coordinated.
type Coordinator struct {
	remote    Remote
	uploader  Uploader
	notifier  Notifier
	confirmer Confirmer
	panel     *PanelState
	log       *zap.Logger

	mu      sync.Mutex
	pending map[pendingKey]bool
}

func NewCoordinator(remote Remote, uploader Uploader, notifier Notifier, confirmer Confirmer, panel *PanelState, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		remote:    remote,
		uploader:  uploader,
		notifier:  notifier,
		confirmer: confirmer,
		panel:     panel,
		log:       log,
		pending:   make(map[pendingKey]bool),
	}
}

// Pending reports whether an edit, delete or reaction toggle is in flight
// for a message; the UI disables the matching controls while it is.
func (c *Coordinator) Pending(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for kind := kindEdit; kind <= kindReact; kind++ {
		if c.pending[pendingKey{kind, messageID}] {
			return true
		}
	}
	return false
}

func (c *Coordinator) begin(k pendingKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[k] {
		return false
	}
	c.pending[k] = true
	return true
}

func (c *Coordinator) end(k pendingKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, k)
}

// Send creates a new message, uploading the attachment first when one is
// given. Upload failure at either step aborts the whole send with no
// message created. The composer is keyed by its context so one send per
// composer is in flight at a time.
func (c *Coordinator) Send(req models.CreateMessageRequest, attachment *Attachment) error {
	key := pendingKey{kindCreate, composerKey(req)}
	if !c.begin(key) {
		return ErrPending
	}
	defer c.end(key)

	if attachment != nil {
		target, err := c.uploader.RequestUploadTarget()
		if err != nil {
			c.notifier.Error("Failed to send message")
			return fmt.Errorf("request upload target: %w", err)
		}

		storageID, err := c.uploader.Upload(target, attachment.ContentType, attachment.Data)
		if err != nil {
			c.notifier.Error("Failed to send message")
			return fmt.Errorf("upload attachment: %w", err)
		}
		req.Image = &storageID
	}

	id, err := c.remote.CreateMessage(req)
	if err != nil {
		c.notifier.Error("Failed to send message")
		return err
	}

	c.log.Debug("message sent", zap.String("message_id", id))
	return nil
}

// Edit replaces a message body. On success the editing flag clears and a
// success notification shows; on failure only the notification fires.
func (c *Coordinator) Edit(messageID, body string) error {
	key := pendingKey{kindEdit, messageID}
	if !c.begin(key) {
		return ErrPending
	}
	defer c.end(key)

	if err := c.remote.UpdateMessage(messageID, body); err != nil {
		c.notifier.Error("Failed to update message")
		return err
	}

	if c.panel.EditingID() == messageID {
		c.panel.ClearEditing()
	}
	c.notifier.Success("Message updated")
	return nil
}

// Delete removes a message after the user confirms. Declining is a normal
// abort: no remote call, no notification. Deleting the open thread's root
// also closes the thread panel.
func (c *Coordinator) Delete(messageID string) error {
	if !c.confirmer.Confirm("Delete message", "Are you sure you want to delete this message? This cannot be undone.") {
		return nil
	}

	key := pendingKey{kindDelete, messageID}
	if !c.begin(key) {
		return ErrPending
	}
	defer c.end(key)

	if err := c.remote.DeleteMessage(messageID); err != nil {
		c.notifier.Error("Failed to delete message")
		return err
	}

	c.notifier.Success("Message deleted")
	if c.panel.ThreadID() == messageID {
		c.panel.CloseThread()
	}
	return nil
}

// ToggleReaction flips the current member's reaction. The control stays
// disabled while pending; the store serializes the toggle per
// (message, member, value).
func (c *Coordinator) ToggleReaction(messageID, value string) error {
	key := pendingKey{kindReact, messageID}
	if !c.begin(key) {
		return ErrPending
	}
	defer c.end(key)

	if err := c.remote.ToggleReaction(messageID, value); err != nil {
		c.notifier.Error("Failed to toggle reaction")
		return err
	}
	return nil
}

func composerKey(req models.CreateMessageRequest) string {
	switch {
	case req.ParentID != nil:
		return "thread:" + *req.ParentID
	case req.ChannelID != nil:
		return "channel:" + *req.ChannelID
	case req.ConversationID != nil:
		return "conversation:" + *req.ConversationID
	}
	return ""
}
