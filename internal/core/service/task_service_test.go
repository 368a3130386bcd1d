package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

type memTaskRepo struct {
	tasks map[string]domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.tasks[t.ID] = *t
	return nil
}

func (r *memTaskRepo) FindByID(_ context.Context, ownerID, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (r *memTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *memTaskRepo) Update(_ context.Context, t *domain.Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, ownerID, id string) error {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func TestTaskService_Lifecycle(t *testing.T) {
	repo := newMemTaskRepo()
	activity := &recordingActivity{}
	svc := NewTaskService(repo, activity, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, "42", "42", ports.TaskInput{Title: "  Call lender  ", Notes: " re: rate lock "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" || created.Title != "Call lender" || created.Notes != "re: rate lock" {
		t.Fatalf("unexpected task: %+v", created)
	}

	updated, err := svc.Update(ctx, "42", "42", created.ID, ports.TaskInput{Title: "Call lender", Completed: true})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.Completed || updated.Notes != "" {
		t.Fatalf("update should replace fields: %+v", updated)
	}

	list, err := svc.List(ctx, "42")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one task, got %d (%v)", len(list), err)
	}

	if err := svc.Delete(ctx, "42", "42", created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, "42", created.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound after delete, got %v", err)
	}

	want := []string{domain.ActionTaskCreated, domain.ActionTaskUpdated, domain.ActionTaskDeleted}
	if len(activity.entries) != len(want) {
		t.Fatalf("expected %d activity entries, got %d", len(want), len(activity.entries))
	}
	for i, action := range want {
		if activity.entries[i].Action != action || activity.entries[i].EntityType != "task" {
			t.Fatalf("entry %d: expected %s, got %+v", i, action, activity.entries[i])
		}
	}
}

func TestTaskService_Validation(t *testing.T) {
	svc := NewTaskService(newMemTaskRepo(), nil, zerolog.Nop())

	for _, title := range []string{"", "   ", strings.Repeat("x", maxTaskTitle+1)} {
		if _, err := svc.Create(context.Background(), "42", "42", ports.TaskInput{Title: title}); !errors.Is(err, domain.ErrInvalidTask) {
			t.Fatalf("title %q: expected ErrInvalidTask, got %v", title, err)
		}
	}
}

func TestTaskService_OwnerScoping(t *testing.T) {
	svc := NewTaskService(newMemTaskRepo(), nil, zerolog.Nop())
	ctx := context.Background()

	task, err := svc.Create(ctx, "42", "42", ports.TaskInput{Title: "Mine"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, "7", task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound for another owner, got %v", err)
	}
	if _, err := svc.Update(ctx, "7", "7", task.ID, ports.TaskInput{Title: "Stolen"}); err != domain.ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound on foreign update, got %v", err)
	}
	if err := svc.Delete(ctx, "7", "7", task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound on foreign delete, got %v", err)
	}

	empty, err := svc.List(ctx, "7")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v (%v)", empty, err)
	}
}
