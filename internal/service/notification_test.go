package service

import (
	"testing"
	"time"

	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/internal/model"
)

func notificationFixture(channel *fakeChannel) (*notificationService, *fakeNotificationRepo, *time.Time) {
	repo := newFakeNotificationRepo()
	cfg := &config.Config{}
	cfg.Notification.MaxRetryAttempts = 3
	cfg.Notification.RetryDelaySeconds = 60
	cfg.Notification.SweepSeconds = 60

	svc := NewNotificationService(repo, channel, cfg).(*notificationService)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, repo, &clock
}

func testUser() *model.User {
	return &model.User{ID: 4, FullName: "Dana", Email: "dana@school.edu"}
}

func TestNotifySucceedsFirstAttempt(t *testing.T) {
	channel := &fakeChannel{}
	svc, repo, _ := notificationFixture(channel)

	attempt, err := svc.Notify(testUser(), model.NotifyGradePublished, 11, "Your grade is out")
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	stored, err := repo.FindByID(attempt.ID)
	if err != nil {
		t.Fatalf("attempt row missing: %v", err)
	}
	if stored.Status != model.NotificationSent {
		t.Errorf("status = %s, want SENT", stored.Status)
	}
	if stored.AttemptCount != 1 {
		t.Errorf("attemptCount = %d, want 1", stored.AttemptCount)
	}
	if stored.NextRetryAt != nil {
		t.Errorf("nextRetryAt = %v, want nil after success", stored.NextRetryAt)
	}
	if len(channel.sent) != 1 {
		t.Errorf("deliveries = %d, want 1", len(channel.sent))
	}
}

func TestNotifyPersistsRecipientByIDOnly(t *testing.T) {
	channel := &fakeChannel{}
	svc, repo, _ := notificationFixture(channel)
	user := testUser()

	attempt, err := svc.Notify(user, model.NotifyGradePublished, 11, "Your grade is out")
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	stored, _ := repo.FindByID(attempt.ID)
	if stored.UserID != user.ID {
		t.Errorf("userID = %d, want %d", stored.UserID, user.ID)
	}
	for _, embedded := range repo.createdUserEmbeds {
		if embedded != 0 {
			t.Errorf("insert carried embedded user %d, want the row keyed by id only", embedded)
		}
	}
	// The in-memory row still addresses the first delivery attempt.
	if attempt.User.Email != user.Email {
		t.Errorf("attempt.User.Email = %q, want %q for the synchronous send", attempt.User.Email, user.Email)
	}
}

func TestNotifyRetriesWithLinearBackoffThenSucceeds(t *testing.T) {
	channel := &fakeChannel{failures: 2}
	svc, repo, clock := notificationFixture(channel)
	start := *clock

	attempt, err := svc.Notify(testUser(), model.NotifyReviewNeeded, 5, "Review needed")
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	stored, _ := repo.FindByID(attempt.ID)
	if stored.Status != model.NotificationFailed {
		t.Fatalf("status after first failure = %s, want FAILED", stored.Status)
	}
	wantRetry := start.Add(60 * time.Second)
	if stored.NextRetryAt == nil || !stored.NextRetryAt.Equal(wantRetry) {
		t.Errorf("nextRetryAt = %v, want %v (delay x 1)", stored.NextRetryAt, wantRetry)
	}

	// Sweep before the retry time does nothing.
	svc.RetryFailedNotifications()
	stored, _ = repo.FindByID(attempt.ID)
	if stored.AttemptCount != 1 {
		t.Fatalf("attemptCount = %d after premature sweep, want 1", stored.AttemptCount)
	}

	// Second attempt fails too; backoff doubles with the attempt count.
	*clock = start.Add(61 * time.Second)
	svc.RetryFailedNotifications()
	stored, _ = repo.FindByID(attempt.ID)
	if stored.AttemptCount != 2 {
		t.Fatalf("attemptCount = %d, want 2", stored.AttemptCount)
	}
	wantRetry = clock.Add(120 * time.Second)
	if stored.NextRetryAt == nil || !stored.NextRetryAt.Equal(wantRetry) {
		t.Errorf("nextRetryAt = %v, want %v (delay x 2)", stored.NextRetryAt, wantRetry)
	}

	// Third attempt succeeds.
	*clock = clock.Add(121 * time.Second)
	svc.RetryFailedNotifications()
	stored, _ = repo.FindByID(attempt.ID)
	if stored.Status != model.NotificationSent {
		t.Errorf("status = %s, want SENT", stored.Status)
	}
	if stored.AttemptCount != 3 {
		t.Errorf("attemptCount = %d, want 3", stored.AttemptCount)
	}
	if len(channel.sent) != 1 {
		t.Errorf("deliveries = %d, want exactly 1", len(channel.sent))
	}
}

func TestNotifyExhaustsAfterMaxAttempts(t *testing.T) {
	channel := &fakeChannel{failures: 10}
	svc, repo, clock := notificationFixture(channel)

	attempt, err := svc.Notify(testUser(), model.NotifyAppealResolved, 2, "Appeal resolved")
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		*clock = clock.Add(time.Hour)
		svc.RetryFailedNotifications()
	}

	stored, _ := repo.FindByID(attempt.ID)
	if stored.Status != model.NotificationExhausted {
		t.Errorf("status = %s, want EXHAUSTED", stored.Status)
	}
	if stored.AttemptCount != 3 {
		t.Errorf("attemptCount = %d, want capped at 3", stored.AttemptCount)
	}
	if stored.NextRetryAt != nil {
		t.Errorf("nextRetryAt = %v, want nil once exhausted", stored.NextRetryAt)
	}
	if stored.ErrorMessage == nil || *stored.ErrorMessage == "" {
		t.Error("errorMessage not recorded")
	}
}

func TestRetrySkipsRowsThatAreNotDue(t *testing.T) {
	channel := &fakeChannel{failures: 1}
	svc, repo, _ := notificationFixture(channel)

	attempt, _ := svc.Notify(testUser(), model.NotifyGradePublished, 8, "msg")

	// Clock has not advanced past NextRetryAt.
	svc.RetryFailedNotifications()
	stored, _ := repo.FindByID(attempt.ID)
	if stored.AttemptCount != 1 {
		t.Errorf("attemptCount = %d, want 1 (row not yet due)", stored.AttemptCount)
	}
}
