package feed

import "sync"

// Confirmer gates destructive mutations behind a user decision. Confirm
// blocks the calling action until the user answers; there is no timeout.
type Confirmer interface {
	Confirm(title, message string) bool
}

// ConfirmPrompt is a single pending yes/no question. The UI resolves it
// exactly once; later resolutions are ignored.
type ConfirmPrompt struct {
	Title   string
	Message string

	once sync.Once
	ch   chan bool
}

func (p *ConfirmPrompt) Resolve(ok bool) {
	p.once.Do(func() { p.ch <- ok })
}

// PromptConfirmer implements Confirmer as a one-shot result channel per
// question: the triggering action parks on the answer while the UI stays
// free to render the dialog.
type PromptConfirmer struct {
	prompts chan *ConfirmPrompt
}

func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{prompts: make(chan *ConfirmPrompt, 1)}
}

// Prompts delivers questions for the UI to present.
func (c *PromptConfirmer) Prompts() <-chan *ConfirmPrompt { return c.prompts }

func (c *PromptConfirmer) Confirm(title, message string) bool {
	p := &ConfirmPrompt{
		Title:   title,
		Message: message,
		ch:      make(chan bool, 1),
	}
	c.prompts <- p
	return <-p.ch
}
