package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
)

type memActivityRepo struct {
	entries []domain.ActivityEntry
}

func (r *memActivityRepo) Insert(_ context.Context, entry *domain.ActivityEntry) (string, error) {
	entry.ID = fmt.Sprintf("%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *memActivityRepo) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]domain.ActivityEntry, int64, error) {
	var owned []domain.ActivityEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			owned = append(owned, e)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	total := int64(len(owned))
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func TestActivityService_Log(t *testing.T) {
	repo := &memActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())

	id, err := svc.Log(context.Background(), domain.ActivityEntry{
		OwnerID:    "42",
		Action:     domain.ActionTaskCreated,
		EntityType: "task",
		Summary:    "Task created",
	})
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an id")
	}
	if repo.entries[0].CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be stamped")
	}

	if _, err := svc.Log(context.Background(), domain.ActivityEntry{OwnerID: "42"}); err != domain.ErrInvalidActivity {
		t.Fatalf("expected ErrInvalidActivity, got %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("invalid entry must not be stored")
	}
}

func TestActivityService_GetForUser_Pagination(t *testing.T) {
	repo := &memActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := svc.Log(context.Background(), domain.ActivityEntry{
			OwnerID:    "42",
			Action:     domain.ActionProfileUpdated,
			EntityType: "profile",
			Summary:    fmt.Sprintf("update %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Log #%d returned error: %v", i, err)
		}
	}
	_, _ = svc.Log(context.Background(), domain.ActivityEntry{OwnerID: "7", Action: "x", EntityType: "profile"})

	first, err := svc.GetForUser(context.Background(), "42", 1, 20)
	if err != nil {
		t.Fatalf("GetForUser returned error: %v", err)
	}
	if len(first.Data) != 20 || first.Total != 25 || first.Pages != 2 {
		t.Fatalf("unexpected first page: len=%d total=%d pages=%d", len(first.Data), first.Total, first.Pages)
	}
	if first.Data[0].Summary != "update 24" {
		t.Fatalf("expected newest first, got %q", first.Data[0].Summary)
	}

	second, err := svc.GetForUser(context.Background(), "42", 2, 20)
	if err != nil {
		t.Fatalf("GetForUser returned error: %v", err)
	}
	if len(second.Data) != 5 || second.Page != 2 || second.Pages != 2 {
		t.Fatalf("unexpected second page: len=%d page=%d pages=%d", len(second.Data), second.Page, second.Pages)
	}
	if second.Data[4].Summary != "update 0" {
		t.Fatalf("expected oldest entry last, got %q", second.Data[4].Summary)
	}

	empty, err := svc.GetForUser(context.Background(), "42", 9, 20)
	if err != nil {
		t.Fatalf("GetForUser returned error: %v", err)
	}
	if empty.Data == nil || len(empty.Data) != 0 {
		t.Fatalf("expected empty page past the end, got %#v", empty.Data)
	}
}

func TestActivityService_GetForUser_Defaults(t *testing.T) {
	svc := NewActivityService(&memActivityRepo{}, zerolog.Nop())

	page, err := svc.GetForUser(context.Background(), "42", 0, 1000)
	if err != nil {
		t.Fatalf("GetForUser returned error: %v", err)
	}
	if page.Page != 1 || page.PerPage != maxPageLimit {
		t.Fatalf("expected clamped paging, got page=%d per_page=%d", page.Page, page.PerPage)
	}
}
