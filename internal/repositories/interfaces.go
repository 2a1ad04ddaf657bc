package repositories

import (
	"context"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetOnlineStatus(ctx context.Context, username string, online bool) error
	SetStatus(ctx context.Context, username string, status string) error
}

type VolunteerRepository interface {
	Upsert(ctx context.Context, volunteer *models.Volunteer) error
	GetByUsername(ctx context.Context, username string) (*models.Volunteer, error)
	Delete(ctx context.Context, username string) error
	// FindEligible returns volunteers matching a task's locality (zip code
	// equality, or city and state equality, all case-insensitive), available
	// on the given weekday, and holding the required skill.
	FindEligible(ctx context.Context, zipCode, city, state, weekday, skill string) ([]*models.Volunteer, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByTitle(ctx context.Context, title string) (*models.Task, error)
	ListOpenForAssignee(ctx context.Context, username string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListPublic(ctx context.Context) ([]*models.Message, error)
	ListPrivate(ctx context.Context, username1, username2 string) ([]*models.Message, error)
	ListAnnouncements(ctx context.Context) ([]*models.Message, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, username string) error
}
