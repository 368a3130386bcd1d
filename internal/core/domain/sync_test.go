package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestSyncStatus_ErrorRingBuffer(t *testing.T) {
	s := NewSyncStatus("p1", SinkFollowUpBoss)
	for i := 0; i < MaxSyncErrors+1; i++ {
		s.AppendError(SyncError{At: time.Unix(int64(i), 0), Message: fmt.Sprintf("err %d", i)})
	}

	if len(s.Errors) != MaxSyncErrors {
		t.Fatalf("expected %d errors, got %d", MaxSyncErrors, len(s.Errors))
	}
	if s.Errors[0].Message != "err 1" {
		t.Fatalf("expected oldest entry to be evicted, first is %q", s.Errors[0].Message)
	}
	if s.Errors[MaxSyncErrors-1].Message != "err 10" {
		t.Fatalf("expected newest entry last, got %q", s.Errors[MaxSyncErrors-1].Message)
	}
}

func TestSyncState_Transitions(t *testing.T) {
	tests := []struct {
		from, to SyncState
		ok       bool
	}{
		{SyncDisconnected, SyncConnecting, true},
		{SyncDisconnected, SyncConnected, false},
		{SyncConnecting, SyncConnected, true},
		{SyncConnecting, SyncDisconnected, true},
		{SyncConnected, SyncDisconnected, true},
		{SyncConnected, SyncConnecting, true},
	}
	for _, tc := range tests {
		s := &SyncStatus{Sink: SinkFollowUpBoss, State: tc.from}
		err := s.Transition(tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s -> %s: expected error", tc.from, tc.to)
		}
	}

	s := &SyncStatus{State: SyncConnected}
	if err := s.Transition(SyncConnected); err != nil {
		t.Fatalf("same-state transition should be a no-op, got %v", err)
	}
}

func TestSyncStatus_Reset(t *testing.T) {
	s := &SyncStatus{
		State:        SyncConnected,
		AccountID:    "acct",
		APIKey:       "key",
		LastSyncedAt: time.Now(),
		Errors:       []SyncError{{Message: "boom"}},
	}
	s.Reset()
	if s.Connected() || s.APIKey != "" || s.AccountID != "" || len(s.Errors) != 0 || !s.LastSyncedAt.IsZero() {
		t.Fatalf("reset left state behind: %+v", s)
	}
}
