// Package focus tracks which detail panel is open, its back history, and the
// advisory per-system tab memory.
package focus

// #region navigator

// Options controls how SetFocus changes the stack.
type Options struct {
	// Push appends the target; otherwise the current top is replaced.
	Push bool
}

// Navigator owns the navigation stack for one dashboard session. The stack is
// never empty and HOME is always reachable through GoBack. A Navigator belongs
// to a single goroutine.
type Navigator struct {
	stack      []Target
	tabs       TabMemory
	defaultTab string
}

// NewNavigator starts at [HOME]. A nil tabs gets a fresh in-process memory.
func NewNavigator(tabs TabMemory, defaultTab string) *Navigator {
	if tabs == nil {
		tabs = NewMemoryTabs()
	}
	return &Navigator{
		stack:      []Target{Home{}},
		tabs:       tabs,
		defaultTab: defaultTab,
	}
}

// SetFocus opens t. HOME always resets the stack to [HOME]; otherwise the
// target is pushed or replaces the top according to opts.
func (n *Navigator) SetFocus(t Target, opts Options) {
	t = canonical(t)
	if IsHome(t) {
		n.reset()
		return
	}
	t = n.withTab(t)
	if opts.Push {
		n.stack = append(n.stack, t)
		return
	}
	n.stack[len(n.stack)-1] = t
}

// GoBack pops the top. Popping the last element lands on [HOME]; at [HOME] it
// does nothing.
func (n *Navigator) GoBack() {
	if len(n.stack) > 1 {
		n.stack[len(n.stack)-1] = nil
		n.stack = n.stack[:len(n.stack)-1]
		return
	}
	n.reset()
}

// ClearFocus is SetFocus(Home{}, Options{}).
func (n *Navigator) ClearFocus() {
	n.SetFocus(Home{}, Options{})
}

// Current returns the open target. Never nil.
func (n *Navigator) Current() Target {
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the history, bottom first.
func (n *Navigator) Stack() []Target {
	return append([]Target(nil), n.stack...)
}

// Depth is the stack length, always at least one.
func (n *Navigator) Depth() int {
	return len(n.stack)
}

func (n *Navigator) reset() {
	clear(n.stack)
	n.stack = append(n.stack[:0], Home{})
}

// #endregion navigator

// #region tabs

// RememberTab records tab as the last one viewed for systemID.
func (n *Navigator) RememberTab(systemID, tab string) {
	n.tabs.RememberTab(systemID, tab)
}

// LastTab returns the remembered tab for systemID, or the default tab.
func (n *Navigator) LastTab(systemID string) string {
	if tab, ok := n.tabs.LastTab(systemID); ok && tab != "" {
		return tab
	}
	return n.defaultTab
}

// SetTab switches the sub-tab of the current System focus in place and
// remembers it. It reports false when the current focus is not a system.
func (n *Navigator) SetTab(tab string) bool {
	s, ok := n.Current().(System)
	if !ok {
		return false
	}
	s.Tab = tab
	n.SetFocus(s, Options{Push: false})
	return true
}

// withTab fills a System target's tab from memory, or records the explicit one.
func (n *Navigator) withTab(t Target) Target {
	s, ok := t.(System)
	if !ok {
		return t
	}
	if s.Tab == "" {
		s.Tab = n.LastTab(s.SystemID)
		return s
	}
	n.tabs.RememberTab(s.SystemID, s.Tab)
	return s
}

// #endregion tabs
