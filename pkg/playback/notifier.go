package playback

import "time"

// Snapshot is sent to observers when the controller pauses so that a
// companion process can stay in sync with the simulation.
type Snapshot struct {
	SessionID  string    `json:"sessionId"`
	Frame      uint64    `json:"frame"`
	State      []byte    `json:"state"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Notifier receives pause snapshots. SendSnapshot is called on the
// simulation thread and must not block.
type Notifier interface {
	SendSnapshot(snapshot Snapshot)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(snapshot Snapshot)

func (f NotifierFunc) SendSnapshot(snapshot Snapshot) {
	f(snapshot)
}

// MultiNotifier fans a snapshot out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) SendSnapshot(snapshot Snapshot) {
	for _, n := range m {
		n.SendSnapshot(snapshot)
	}
}

type nopNotifier struct{}

func (nopNotifier) SendSnapshot(Snapshot) {}
