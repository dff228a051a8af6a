package scanner

import "sync"

type userKey struct {
	contextID int
	name      string
}

// AssignedIDs records the ids ZAP handed out for contexts and users created
// during a run. The resolver prefers them over ids written in the
// configuration, which only hold for a fresh engine. A nil *AssignedIDs
// records nothing.
type AssignedIDs struct {
	mu       sync.RWMutex
	contexts map[string]int
	users    map[userKey]int
}

// NewAssignedIDs returns an empty record.
func NewAssignedIDs() *AssignedIDs {
	return &AssignedIDs{
		contexts: make(map[string]int),
		users:    make(map[userKey]int),
	}
}

// SetContext records the id of the context called name.
func (a *AssignedIDs) SetContext(name string, id int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contexts[name] = id
}

// Context returns the recorded id of the context called name.
func (a *AssignedIDs) Context(name string) (int, bool) {
	if a == nil {
		return -1, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.contexts[name]
	return id, ok
}

// SetUser records the id of the user called name in context contextID.
func (a *AssignedIDs) SetUser(contextID int, name string, id int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[userKey{contextID, name}] = id
}

// User returns the recorded id of the user called name in context contextID.
func (a *AssignedIDs) User(contextID int, name string) (int, bool) {
	if a == nil {
		return -1, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.users[userKey{contextID, name}]
	return id, ok
}
