package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
)

var ErrTaskNotOpen = errors.New("task is not open")

// TaskService persists help tasks and kicks off volunteer matching.
type TaskService struct {
	tasks   repositories.TaskRepository
	matcher *TaskMatcher
	logger  *logger.Logger
}

func NewTaskService(tasks repositories.TaskRepository, matcher *TaskMatcher, l *logger.Logger) *TaskService {
	return &TaskService{tasks: tasks, matcher: matcher, logger: l}
}

// CreateTask stores the task and fans out volunteer notifications in the
// background. Matching is best-effort: the task is created even if every
// notification fails.
func (s *TaskService) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	if task.DeclinedBy == nil {
		task.DeclinedBy = []string{}
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created, matching volunteers", "title", task.Title, "skill", task.Skill)
	go s.matcher.MatchTask(context.Background(), task)

	return nil
}

func (s *TaskService) ListOpenForAssignee(ctx context.Context, username string) ([]*models.Task, error) {
	return s.tasks.ListOpenForAssignee(ctx, username)
}

// AcceptTask assigns the task to the volunteer. Only an open task can be
// accepted; a second volunteer racing for the same task gets
// ErrTaskNotOpen.
func (s *TaskService) AcceptTask(ctx context.Context, title, username string) (*models.Task, error) {
	task, err := s.tasks.GetByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status != models.TaskStatusOpen {
		return nil, ErrTaskNotOpen
	}

	task.Status = models.TaskStatusAccepted
	task.Assignee = models.NormalizeUsername(username)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task accepted", "title", task.Title, "assignee", task.Assignee)
	return task, nil
}

// DeclineTask records that the volunteer passed on the task, so it stops
// appearing on their dashboard. The task stays open for everyone else.
func (s *TaskService) DeclineTask(ctx context.Context, title, username string) (*models.Task, error) {
	task, err := s.tasks.GetByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status != models.TaskStatusOpen {
		return nil, ErrTaskNotOpen
	}

	username = models.NormalizeUsername(username)
	for _, declined := range task.DeclinedBy {
		if declined == username {
			return task, nil
		}
	}

	task.DeclinedBy = append(task.DeclinedBy, username)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task declined", "title", task.Title, "username", username)
	return task, nil
}
