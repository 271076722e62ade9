package license

import (
	"sync"
)

// Notifier fans validation progress out to observers. Two channels of
// events exist: textual status updates for progress display, and a
// boolean licensed signal for gating application features. Status events
// fire in phase order within one attempt; the licensed signal fires at
// most once per terminal outcome. All methods are nil-receiver safe so
// components can run without observers.
type Notifier struct {
	mu          sync.RWMutex
	statusFns   []func(string)
	licensedFns []func(bool)
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnStatus registers an observer for textual status updates. Observers
// are invoked synchronously in registration order.
func (n *Notifier) OnStatus(fn func(string)) {
	if n == nil || fn == nil {
		return
	}
	n.mu.Lock()
	n.statusFns = append(n.statusFns, fn)
	n.mu.Unlock()
}

// OnLicensed registers an observer for licensed/unlicensed transitions.
func (n *Notifier) OnLicensed(fn func(bool)) {
	if n == nil || fn == nil {
		return
	}
	n.mu.Lock()
	n.licensedFns = append(n.licensedFns, fn)
	n.mu.Unlock()
}

// Status emits a progress message to all status observers.
func (n *Notifier) Status(msg string) {
	if n == nil {
		return
	}
	n.mu.RLock()
	fns := n.statusFns
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(msg)
	}
}

// Licensed emits the licensed signal to all licensed observers.
func (n *Notifier) Licensed(ok bool) {
	if n == nil {
		return
	}
	n.mu.RLock()
	fns := n.licensedFns
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(ok)
	}
}
