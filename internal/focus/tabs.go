package focus

// TabMemory is advisory recall of the last sub-tab viewed per system.
// Losing entries must only cost continuity, never correctness.
type TabMemory interface {
	RememberTab(systemID, tab string)
	LastTab(systemID string) (string, bool)
}

// MemoryTabs is an in-process TabMemory scoped to one session. Not safe for
// concurrent use; the owning navigator serializes access.
type MemoryTabs struct {
	tabs map[string]string
}

// NewMemoryTabs returns an empty tab memory.
func NewMemoryTabs() *MemoryTabs {
	return &MemoryTabs{tabs: make(map[string]string)}
}

func (m *MemoryTabs) RememberTab(systemID, tab string) {
	if systemID == "" || tab == "" {
		return
	}
	m.tabs[systemID] = tab
}

func (m *MemoryTabs) LastTab(systemID string) (string, bool) {
	tab, ok := m.tabs[systemID]
	return tab, ok
}

// Clear drops every remembered tab. Called on session teardown.
func (m *MemoryTabs) Clear() {
	clear(m.tabs)
}
