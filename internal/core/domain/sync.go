package domain

import (
	"fmt"
	"time"
)

// MaxSyncErrors caps the per-profile, per-sink error ring buffer.
const MaxSyncErrors = 10

// Sink names. Connectable sinks hold per-profile credentials.
const (
	SinkFollowUpBoss = "followupboss"
	SinkMetaMirror   = "meta_mirror"
	SinkClaims       = "claims"
	SinkEventStream  = "event_stream"
)

// IsConnectableSink reports whether sink supports connect/disconnect.
func IsConnectableSink(sink string) bool {
	return sink == SinkFollowUpBoss
}

// SyncState is the connection lifecycle of a sink for one profile.
type SyncState string

const (
	SyncDisconnected SyncState = "disconnected"
	SyncConnecting   SyncState = "connecting"
	SyncConnected    SyncState = "connected"
)

var syncTransitions = map[SyncState][]SyncState{
	SyncDisconnected: {SyncConnecting},
	SyncConnecting:   {SyncConnected, SyncDisconnected},
	SyncConnected:    {SyncDisconnected, SyncConnecting},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s SyncState) CanTransitionTo(next SyncState) bool {
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SyncError is one entry of the error ring buffer.
type SyncError struct {
	At      time.Time `json:"at" bson:"at"`
	Message string    `json:"message" bson:"message"`
}

// SyncStatus tracks one sink for one profile.
type SyncStatus struct {
	ProfileID    string      `json:"profile_id" bson:"profile_id"`
	Sink         string      `json:"sink" bson:"sink"`
	State        SyncState   `json:"state" bson:"state"`
	AccountID    string      `json:"account_id,omitempty" bson:"account_id,omitempty"`
	APIKey       string      `json:"-" bson:"api_key,omitempty"`
	LastSyncedAt time.Time   `json:"last_synced_at,omitempty" bson:"last_synced_at,omitempty"`
	Errors       []SyncError `json:"errors" bson:"errors"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// NewSyncStatus returns a disconnected status with an empty error buffer.
func NewSyncStatus(profileID, sink string) *SyncStatus {
	return &SyncStatus{ProfileID: profileID, Sink: sink, State: SyncDisconnected, Errors: []SyncError{}}
}

// Connected reports whether the sink holds validated credentials.
func (s *SyncStatus) Connected() bool {
	return s != nil && s.State == SyncConnected
}

// Transition moves the status to next or reports an invalid transition.
func (s *SyncStatus) Transition(next SyncState) error {
	if s.State == next {
		return nil
	}
	if !s.State.CanTransitionTo(next) {
		return fmt.Errorf("sync status %s: cannot move from %s to %s", s.Sink, s.State, next)
	}
	s.State = next
	return nil
}

// AppendError pushes e onto the ring buffer, evicting the oldest entries so
// at most MaxSyncErrors remain.
func (s *SyncStatus) AppendError(e SyncError) {
	s.Errors = AppendSyncError(s.Errors, e)
}

// AppendSyncError is the ring buffer primitive shared by in-memory and stored
// statuses.
func AppendSyncError(buf []SyncError, e SyncError) []SyncError {
	buf = append(buf, e)
	if over := len(buf) - MaxSyncErrors; over > 0 {
		trimmed := make([]SyncError, MaxSyncErrors)
		copy(trimmed, buf[over:])
		buf = trimmed
	}
	return buf
}

// Reset clears credentials and errors, leaving the status disconnected.
func (s *SyncStatus) Reset() {
	s.State = SyncDisconnected
	s.AccountID = ""
	s.APIKey = ""
	s.LastSyncedAt = time.Time{}
	s.Errors = []SyncError{}
}
