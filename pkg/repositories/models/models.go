package models

import "time"

// Snapshot is the simulation state archived at a pause.
type Snapshot struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Frame      uint64    `json:"frame"`
	State      []byte    `json:"state"`
	CapturedAt time.Time `json:"captured_at"`
}
