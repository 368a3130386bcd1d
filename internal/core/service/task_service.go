package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const maxTaskTitle = 200

type TaskService struct {
	repo     ports.TaskRepository
	activity ports.ActivityService
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTaskService(repo ports.TaskRepository, activity ports.ActivityService, logger zerolog.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		activity: activity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) Create(ctx context.Context, actorID, ownerID string, in ports.TaskInput) (*domain.Task, error) {
	title, err := validateTaskTitle(in.Title)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &domain.Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Notes:     strings.TrimSpace(in.Notes),
		DueAt:     in.DueAt,
		Completed: in.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.record(ctx, actorID, t, domain.ActionTaskCreated, "Task created: "+t.Title)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return s.repo.FindByID(ctx, ownerID, id)
}

func (s *TaskService) List(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, actorID, ownerID, id string, in ports.TaskInput) (*domain.Task, error) {
	title, err := validateTaskTitle(in.Title)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	t.Title = title
	t.Notes = strings.TrimSpace(in.Notes)
	t.DueAt = in.DueAt
	t.Completed = in.Completed
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, actorID, t, domain.ActionTaskUpdated, "Task updated: "+t.Title)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, actorID, ownerID, id string) error {
	t, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.record(ctx, actorID, t, domain.ActionTaskDeleted, "Task deleted: "+t.Title)
	return nil
}

func (s *TaskService) record(ctx context.Context, actorID string, t *domain.Task, action, summary string) {
	if s.activity == nil {
		return
	}
	_, err := s.activity.Log(ctx, domain.ActivityEntry{
		OwnerID:    t.OwnerID,
		ActorID:    actorID,
		Action:     action,
		EntityType: "task",
		EntityID:   t.ID,
		Summary:    summary,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("task_id", t.ID).Str("action", action).Msg("failed to record activity")
	}
}

func validateTaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || len(title) > maxTaskTitle {
		return "", fmt.Errorf("%w: title must be 1-%d characters", domain.ErrInvalidTask, maxTaskTitle)
	}
	return title, nil
}
