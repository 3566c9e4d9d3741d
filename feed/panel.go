package feed

import "sync"

// PanelState is the per-client UI state with a narrow lifecycle: which
// message is being edited, which thread panel is open, which member
// profile is open. It is injected into feeds and coordinators rather than
// kept as a package global, so instances never interfere.
type PanelState struct {
	mu        sync.Mutex
	editingID string
	threadID  string
	profileID string
}

func NewPanelState() *PanelState { return &PanelState{} }

func (p *PanelState) SetEditing(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editingID = messageID
}

func (p *PanelState) ClearEditing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editingID = ""
}

func (p *PanelState) EditingID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editingID
}

// OpenThread opens the thread panel on a root message. Thread and profile
// panels are mutually exclusive.
func (p *PanelState) OpenThread(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threadID = messageID
	p.profileID = ""
}

func (p *PanelState) CloseThread() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threadID = ""
}

func (p *PanelState) ThreadID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threadID
}

func (p *PanelState) OpenProfile(memberID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileID = memberID
	p.threadID = ""
}

func (p *PanelState) CloseProfile() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileID = ""
}

func (p *PanelState) ProfileID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profileID
}
