package services

import (
	"context"
	"strings"
	"time"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
)

// TaskMatcher finds volunteers eligible for a newly created help task and
// notifies each of them over at most two channels: an SMS (gated by the
// volunteer's consent) and a live push to any open connections.
type TaskMatcher struct {
	volunteers repositories.VolunteerRepository
	registry   *realtime.ConnectionRegistry
	events     *realtime.Broadcaster
	sms        SMSNotifier
	logger     *logger.Logger
}

func NewTaskMatcher(
	volunteers repositories.VolunteerRepository,
	registry *realtime.ConnectionRegistry,
	events *realtime.Broadcaster,
	sms SMSNotifier,
	l *logger.Logger,
) *TaskMatcher {
	return &TaskMatcher{
		volunteers: volunteers,
		registry:   registry,
		events:     events,
		sms:        sms,
		logger:     l,
	}
}

// MatchTask is a side-effecting fan-out: it never returns anything to the
// caller, and a failed notification for one volunteer never blocks the
// others. A failed directory query aborts the whole match.
func (m *TaskMatcher) MatchTask(ctx context.Context, task *models.Task) {
	today := strings.ToLower(time.Now().Weekday().String())

	volunteers, err := m.volunteers.FindEligible(ctx, task.ZipCode, task.City, task.State, today, task.Skill)
	if err != nil {
		m.logger.Error("failed to query eligible volunteers", "task", task.Title, "error", err)
		return
	}

	for _, volunteer := range volunteers {
		if volunteer.Consent {
			err := m.sms.SendTaskNotification(ctx, volunteer.FirstName, volunteer.PhoneNumber, task)
			if err != nil {
				m.logger.Error("failed to send sms notification",
					"username", volunteer.Username, "task", task.Title, "error", err)
			}
		}

		if m.registry.HasAnyConnection(volunteer.Username) {
			m.events.BroadcastToUser(volunteer.Username, realtime.EventNewTaskCreated, task)
		}
	}
}
