package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
	"github.com/bhagyashreemodi/emergency-connect/internal/testutil"
)

type fakeVolunteerRepo struct {
	volunteers []*models.Volunteer
	err        error

	gotZip, gotCity, gotState, gotWeekday, gotSkill string
}

func (f *fakeVolunteerRepo) Upsert(context.Context, *models.Volunteer) error { return nil }
func (f *fakeVolunteerRepo) GetByUsername(context.Context, string) (*models.Volunteer, error) {
	return nil, nil
}
func (f *fakeVolunteerRepo) Delete(context.Context, string) error { return nil }

func (f *fakeVolunteerRepo) FindEligible(_ context.Context, zipCode, city, state, weekday, skill string) ([]*models.Volunteer, error) {
	f.gotZip, f.gotCity, f.gotState, f.gotWeekday, f.gotSkill = zipCode, city, state, weekday, skill
	if f.err != nil {
		return nil, f.err
	}
	return f.volunteers, nil
}

type smsCall struct {
	FirstName   string
	PhoneNumber string
	Task        *models.Task
}

type fakeSMSNotifier struct {
	calls []smsCall
	err   error
}

func (f *fakeSMSNotifier) SendTaskNotification(_ context.Context, firstName, phoneNumber string, task *models.Task) error {
	f.calls = append(f.calls, smsCall{FirstName: firstName, PhoneNumber: phoneNumber, Task: task})
	return f.err
}

type fakePush struct {
	ConnID  string
	Event   string
	Payload any
}

type fakePushSender struct {
	sends []fakePush
	alls  []fakePush
}

func (f *fakePushSender) Send(connID, event string, payload any) {
	f.sends = append(f.sends, fakePush{ConnID: connID, Event: event, Payload: payload})
}

func (f *fakePushSender) SendAll(event string, payload any) {
	f.alls = append(f.alls, fakePush{Event: event, Payload: payload})
}

func newTestMatcher(repo *fakeVolunteerRepo, sms *fakeSMSNotifier) (*TaskMatcher, *realtime.ConnectionRegistry, *fakePushSender) {
	registry := realtime.NewConnectionRegistry()
	sender := &fakePushSender{}
	broadcaster := realtime.NewBroadcaster(registry, sender)
	matcher := NewTaskMatcher(repo, registry, broadcaster, sms, testutil.MakeNoopLogger())
	return matcher, registry, sender
}

func sampleTask() *models.Task {
	return &models.Task{
		Title:       "Burst pipe",
		FullAddress: "123 Main St",
		City:        "Sunnyvale",
		State:       "California",
		ZipCode:     "94089",
		Skill:       "plumbing",
	}
}

func TestTaskMatcher_NotifiesConsentingVolunteerOverBothChannels(t *testing.T) {
	repo := &fakeVolunteerRepo{
		volunteers: []*models.Volunteer{{
			Username:    "bob",
			FirstName:   "Bob",
			PhoneNumber: "1234567890",
			Consent:     true,
		}},
	}
	sms := &fakeSMSNotifier{}
	matcher, registry, sender := newTestMatcher(repo, sms)

	registry.AddConnection("bob", "sock-7")
	task := sampleTask()

	matcher.MatchTask(context.Background(), task)

	// Directory queried with the task's locality, skill and today's weekday
	assert.Equal(t, "94089", repo.gotZip)
	assert.Equal(t, "Sunnyvale", repo.gotCity)
	assert.Equal(t, "California", repo.gotState)
	assert.Equal(t, "plumbing", repo.gotSkill)
	assert.Equal(t, strings.ToLower(time.Now().Weekday().String()), repo.gotWeekday)

	// SMS channel
	require.Len(t, sms.calls, 1)
	assert.Equal(t, "Bob", sms.calls[0].FirstName)
	assert.Equal(t, "1234567890", sms.calls[0].PhoneNumber)
	assert.Equal(t, task, sms.calls[0].Task)

	// Live push channel
	require.Len(t, sender.sends, 1)
	assert.Equal(t, "sock-7", sender.sends[0].ConnID)
	assert.Equal(t, realtime.EventNewTaskCreated, sender.sends[0].Event)
	assert.Equal(t, task, sender.sends[0].Payload)
}

// Consent gates the SMS only: a non-consenting volunteer with an open
// connection still gets the live push.
func TestTaskMatcher_ConsentGatesSMSButNotPush(t *testing.T) {
	repo := &fakeVolunteerRepo{
		volunteers: []*models.Volunteer{{
			Username:    "bob",
			FirstName:   "Bob",
			PhoneNumber: "1234567890",
			Consent:     false,
		}},
	}
	sms := &fakeSMSNotifier{}
	matcher, registry, sender := newTestMatcher(repo, sms)
	registry.AddConnection("bob", "sock-7")

	matcher.MatchTask(context.Background(), sampleTask())

	assert.Empty(t, sms.calls)
	require.Len(t, sender.sends, 1)
	assert.Equal(t, realtime.EventNewTaskCreated, sender.sends[0].Event)
}

func TestTaskMatcher_NoLiveConnectionSkipsPush(t *testing.T) {
	repo := &fakeVolunteerRepo{
		volunteers: []*models.Volunteer{{
			Username:    "bob",
			FirstName:   "Bob",
			PhoneNumber: "1234567890",
			Consent:     true,
		}},
	}
	sms := &fakeSMSNotifier{}
	matcher, _, sender := newTestMatcher(repo, sms)

	matcher.MatchTask(context.Background(), sampleTask())

	assert.Len(t, sms.calls, 1, "SMS still goes out")
	assert.Empty(t, sender.sends, "no live connection, no push")
}

// A failed directory query aborts the whole match without notifying
// anyone.
func TestTaskMatcher_QueryErrorAbortsMatch(t *testing.T) {
	repo := &fakeVolunteerRepo{err: errors.New("directory down")}
	sms := &fakeSMSNotifier{}
	matcher, registry, sender := newTestMatcher(repo, sms)
	registry.AddConnection("bob", "sock-7")

	matcher.MatchTask(context.Background(), sampleTask())

	assert.Empty(t, sms.calls)
	assert.Empty(t, sender.sends)
}

// One volunteer's SMS failure must not stop their own push nor the
// other volunteers' notifications.
func TestTaskMatcher_SMSFailureIsIsolatedPerCandidate(t *testing.T) {
	repo := &fakeVolunteerRepo{
		volunteers: []*models.Volunteer{
			{Username: "bob", FirstName: "Bob", PhoneNumber: "1234567890", Consent: true},
			{Username: "carol", FirstName: "Carol", PhoneNumber: "0987654321", Consent: true},
		},
	}
	sms := &fakeSMSNotifier{err: errors.New("sms provider down")}
	matcher, registry, sender := newTestMatcher(repo, sms)
	registry.AddConnection("bob", "sock-7")
	registry.AddConnection("carol", "sock-8")

	matcher.MatchTask(context.Background(), sampleTask())

	assert.Len(t, sms.calls, 2, "both SMS attempts made despite failures")
	assert.Len(t, sender.sends, 2, "both pushes delivered despite SMS failures")
}
