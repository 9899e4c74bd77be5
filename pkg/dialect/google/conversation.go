package google

import "sync"

// Conversation remembers the function name behind every tool call id the
// dialect synthesized, so a later turn can replay the result under the
// name the vendor expects. One Conversation belongs to one conversation;
// the mutex only lets a caller share it between its own goroutines. The
// zero value is ready to use.
type Conversation struct {
	mu     sync.Mutex
	names  map[string]string
	latest map[string]string
}

// NewConversation returns an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{
		names:  make(map[string]string),
		latest: make(map[string]string),
	}
}

// Record associates id with the function name.
func (c *Conversation) Record(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names == nil {
		c.names = make(map[string]string)
	}
	if c.latest == nil {
		c.latest = make(map[string]string)
	}
	c.names[id] = name
	c.latest[name] = id
}

// FunctionName returns the function name recorded for id.
func (c *Conversation) FunctionName(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[id]
	return name, ok
}

// LatestID returns the most recent call id recorded for the function name.
func (c *Conversation) LatestID(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.latest[name]
	return id, ok
}

// Len returns the number of recorded calls.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}
