package bot

import "sync"

// Conversations tracks the lookups in flight, keyed by chat and by the
// normalized plate being looked up, together with the status message being
// edited with progress. Distinct plates from one chat queue independently;
// only a duplicate of a plate already in flight is rejected. An entry is
// cleared when its lookup reaches a terminal state.
type Conversations struct {
	mu     sync.Mutex
	active map[int64]map[string]*conversation
}

type conversation struct {
	statusID int
}

// NewConversations builds an empty tracker.
func NewConversations() *Conversations {
	return &Conversations{active: make(map[int64]map[string]*conversation)}
}

// Begin marks a lookup as in flight for the chat. Returns false when the
// same key is already pending there.
func (c *Conversations) Begin(chatID int64, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.active[chatID]
	if !ok {
		chat = make(map[string]*conversation)
		c.active[chatID] = chat
	}
	if _, ok := chat[key]; ok {
		return false
	}
	chat[key] = &conversation{}
	return true
}

// SetStatus records the message being used for progress edits on one lookup.
func (c *Conversations) SetStatus(chatID int64, key string, messageID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.active[chatID][key]; ok {
		conv.statusID = messageID
	}
}

// Status returns the lookup's progress message ID, if one was sent.
func (c *Conversations) Status(chatID int64, key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.active[chatID][key]
	if !ok || conv.statusID == 0 {
		return 0, false
	}
	return conv.statusID, true
}

// End clears one lookup, dropping the chat entry with its last key.
func (c *Conversations) End(chatID int64, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active[chatID], key)
	if len(c.active[chatID]) == 0 {
		delete(c.active, chatID)
	}
}
