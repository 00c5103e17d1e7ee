package tool

import "sync"

// ToolInvokeObservation captures one tool call outcome.
type ToolInvokeObservation struct {
	ToolName   string
	DurationMS int64
	Success    bool
	ErrorCode  string
	// N8NStatus is the HTTP status of a failed n8n reply, 0 when the call
	// never got one.
	N8NStatus  int
}

// Observer receives tool-level observability events.
type Observer interface {
	ObserveInvoke(observation ToolInvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(ToolInvokeObservation) {}

var (
	observerMu     sync.RWMutex
	activeObserver Observer = noopObserver{}
)

// SetObserver sets the process-wide tool observability observer.
func SetObserver(observer Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if observer == nil {
		activeObserver = noopObserver{}
		return
	}
	activeObserver = observer
}

func emitInvokeObservation(observation ToolInvokeObservation) {
	observerMu.RLock()
	observer := activeObserver
	observerMu.RUnlock()
	observer.ObserveInvoke(observation)
}
