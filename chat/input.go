package chat

import "strings"

// Input is the draft text of a chat input plus the flag that blocks
// submission while a request is in flight.
type Input struct {
	draft    string
	disabled bool
}

// SetDraft replaces the draft text.
func (in *Input) SetDraft(text string) { in.draft = text }

// Draft returns the current draft text.
func (in *Input) Draft() string { return in.draft }

// SetDisabled toggles whether Submit is allowed.
func (in *Input) SetDisabled(disabled bool) { in.disabled = disabled }

// Disabled reports whether Submit is currently rejected.
func (in *Input) Disabled() bool { return in.disabled }

// Submit hands the raw draft to send and clears it. It does nothing and
// returns false when the input is disabled or the draft is blank.
func (in *Input) Submit(send func(text string)) bool {
	if in.disabled {
		return false
	}
	if strings.TrimSpace(in.draft) == "" {
		return false
	}
	text := in.draft
	in.draft = ""
	if send != nil {
		send(text)
	}
	return true
}
