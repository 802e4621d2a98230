package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes. WithTx returns the receiver so services
// that open transactions run against the same state; the fake tx manager
// just invokes the callback.

type fakeTxManager struct {
	err error
}

func (f *fakeTxManager) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	if f.err != nil {
		return f.err
	}
	return fc(nil)
}

type fakeSubmissionRepo struct {
	submissions map[uint]*model.Submission
	nextID      uint
	history     map[uint][]model.SubmissionStatus
	updateErr   error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		submissions: make(map[uint]*model.Submission),
		nextID:      1,
		history:     make(map[uint][]model.SubmissionStatus),
	}
}

func (f *fakeSubmissionRepo) Create(s *model.Submission) error {
	s.ID = f.nextID
	f.nextID++
	copied := *s
	f.submissions[s.ID] = &copied
	f.history[s.ID] = append(f.history[s.ID], s.Status)
	return nil
}

func (f *fakeSubmissionRepo) Update(s *model.Submission) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.submissions[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Status != s.Status {
		f.history[s.ID] = append(f.history[s.ID], s.Status)
	}
	copied := *s
	f.submissions[s.ID] = &copied
	return nil
}

func (f *fakeSubmissionRepo) FindByID(id uint) (*model.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSubmissionRepo) FindByIDWithRelations(id uint) (*model.Submission, error) {
	return f.FindByID(id)
}

func (f *fakeSubmissionRepo) FindByAssignment(assignmentID uint) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range f.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) FindByStudent(studentID uint) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range f.submissions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) WithTx(*gorm.DB) repository.SubmissionRepository { return f }

type fakeGradeRepo struct {
	grades map[uint]*model.Grade // keyed by submission id
	nextID uint
}

func newFakeGradeRepo() *fakeGradeRepo {
	return &fakeGradeRepo{grades: make(map[uint]*model.Grade), nextID: 1}
}

func (f *fakeGradeRepo) Create(g *model.Grade) error {
	if _, exists := f.grades[g.SubmissionID]; exists {
		return errors.New("duplicate grade for submission")
	}
	g.ID = f.nextID
	f.nextID++
	copied := *g
	f.grades[g.SubmissionID] = &copied
	return nil
}

func (f *fakeGradeRepo) Update(g *model.Grade) error {
	if _, ok := f.grades[g.SubmissionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *g
	f.grades[g.SubmissionID] = &copied
	return nil
}

func (f *fakeGradeRepo) FindBySubmissionID(submissionID uint) (*model.Grade, error) {
	g, ok := f.grades[submissionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGradeRepo) FindBySubmissionIDForUpdate(submissionID uint) (*model.Grade, error) {
	return f.FindBySubmissionID(submissionID)
}

func (f *fakeGradeRepo) WithTx(*gorm.DB) repository.GradeRepository { return f }

type fakeSnapshotRepo struct {
	snapshots []model.GradeSnapshot
	nextID    uint
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{nextID: 1}
}

func (f *fakeSnapshotRepo) Create(s *model.GradeSnapshot) error {
	for _, existing := range f.snapshots {
		if existing.SubmissionID == s.SubmissionID && existing.VersionNumber == s.VersionNumber {
			return errors.New("duplicate snapshot version")
		}
	}
	s.ID = f.nextID
	f.nextID++
	s.SnapshotAt = time.Now()
	f.snapshots = append(f.snapshots, *s)
	return nil
}

func (f *fakeSnapshotRepo) MaxVersionForSubmission(submissionID uint) (int, error) {
	max := 0
	for _, s := range f.snapshots {
		if s.SubmissionID == submissionID && s.VersionNumber > max {
			max = s.VersionNumber
		}
	}
	return max, nil
}

func (f *fakeSnapshotRepo) FindBySubmissionOrdered(submissionID uint) ([]model.GradeSnapshot, error) {
	var out []model.GradeSnapshot
	for _, s := range f.snapshots {
		if s.SubmissionID == submissionID {
			out = append(out, s)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].VersionNumber > out[i].VersionNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeSnapshotRepo) FindLatestBySubmission(submissionID uint) (*model.GradeSnapshot, error) {
	ordered, _ := f.FindBySubmissionOrdered(submissionID)
	if len(ordered) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &ordered[0], nil
}

func (f *fakeSnapshotRepo) WithTx(*gorm.DB) repository.SnapshotRepository { return f }

type fakeAppealRepo struct {
	appeals map[uint]*model.Appeal
	nextID  uint
}

func newFakeAppealRepo() *fakeAppealRepo {
	return &fakeAppealRepo{appeals: make(map[uint]*model.Appeal), nextID: 1}
}

func (f *fakeAppealRepo) Create(a *model.Appeal) error {
	a.ID = f.nextID
	f.nextID++
	copied := *a
	f.appeals[a.ID] = &copied
	return nil
}

func (f *fakeAppealRepo) Update(a *model.Appeal) error {
	if _, ok := f.appeals[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *a
	f.appeals[a.ID] = &copied
	return nil
}

func (f *fakeAppealRepo) FindByID(id uint) (*model.Appeal, error) {
	a, ok := f.appeals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAppealRepo) FindBySubmission(submissionID uint) ([]model.Appeal, error) {
	var out []model.Appeal
	for _, a := range f.appeals {
		if a.SubmissionID == submissionID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppealRepo) FindByStatus(status model.AppealStatus) ([]model.Appeal, error) {
	var out []model.Appeal
	for _, a := range f.appeals {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppealRepo) HasUnresolvedForSubmission(submissionID uint) (bool, error) {
	for _, a := range f.appeals {
		if a.SubmissionID == submissionID && !a.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppealRepo) WithTx(*gorm.DB) repository.AppealRepository { return f }

type fakeNotificationRepo struct {
	attempts map[uint]*model.NotificationAttempt
	nextID   uint
	// ids of users embedded in rows handed to Create; the real repo
	// omits associations, so these should always be zero.
	createdUserEmbeds []uint
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{attempts: make(map[uint]*model.NotificationAttempt), nextID: 1}
}

func (f *fakeNotificationRepo) Create(a *model.NotificationAttempt) error {
	a.ID = f.nextID
	f.nextID++
	f.createdUserEmbeds = append(f.createdUserEmbeds, a.User.ID)
	copied := *a
	copied.User = model.User{}
	f.attempts[a.ID] = &copied
	return nil
}

func (f *fakeNotificationRepo) Update(a *model.NotificationAttempt) error {
	if _, ok := f.attempts[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *a
	copied.User = model.User{}
	f.attempts[a.ID] = &copied
	return nil
}

func (f *fakeNotificationRepo) FindByID(id uint) (*model.NotificationAttempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeNotificationRepo) FindByUser(userID uint) ([]model.NotificationAttempt, error) {
	var out []model.NotificationAttempt
	for _, a := range f.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) FindDueForRetry(now time.Time, maxAttempts int) ([]model.NotificationAttempt, error) {
	var out []model.NotificationAttempt
	for _, a := range f.attempts {
		if a.Status == model.NotificationFailed && a.AttemptCount < maxAttempts &&
			a.NextRetryAt != nil && !a.NextRetryAt.After(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uint]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]*model.Assignment
}

func newFakeAssignmentRepo(assignments ...*model.Assignment) *fakeAssignmentRepo {
	f := &fakeAssignmentRepo{assignments: make(map[uint]*model.Assignment)}
	for _, a := range assignments {
		f.assignments[a.ID] = a
	}
	return f
}

func (f *fakeAssignmentRepo) FindByID(id uint) (*model.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAssignmentRepo) FindByIDWithTeacher(id uint) (*model.Assignment, error) {
	return f.FindByID(id)
}

type fakeRubricRepo struct {
	rubrics []model.Rubric
}

func (f *fakeRubricRepo) FindByAssignment(assignmentID uint) ([]model.Rubric, error) {
	var out []model.Rubric
	for _, r := range f.rubrics {
		if r.AssignmentID == assignmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Create(entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) FindByEntity(entityType string, entityID uint) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Service-level fakes.

type fakeStorage struct {
	objects     map[string][]byte
	uploadErr   error
	textErr     error
	downloadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) UploadFile(_ context.Context, data []byte, folder, fileName string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	key := folder + "/" + fileName
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) UploadText(_ context.Context, text, folder, fileName string) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	key := folder + "/" + fileName
	f.objects[key] = []byte(text)
	return key, nil
}

func (f *fakeStorage) Download(_ context.Context, key string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return data, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeExtraction struct {
	text       string
	textErr    error
	analysis   *ImageAnalysis
	analyzeErr error
}

func (f *fakeExtraction) ExtractText(_ context.Context, _ []byte, fileType string) (string, error) {
	if !supportedFileType(fileType) {
		return "", ErrUnsupportedFormat
	}
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *fakeExtraction) AnalyzeImage(_ context.Context, _ []byte) (*ImageAnalysis, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

// fakeChannel fails the first failures sends, then succeeds.
type fakeChannel struct {
	failures int
	sent     []string
	calls    int
}

func (f *fakeChannel) Send(_, _, _, message string) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("delivery refused")
	}
	f.sent = append(f.sent, message)
	return nil
}

// fakeNotifier records workflow notifications without delivering them.
type fakeNotifier struct {
	reviewNeeded    []uint
	gradePublished  []uint
	appealsResolved []uint
}

func (f *fakeNotifier) Notify(*model.User, string, uint, string) (*model.NotificationAttempt, error) {
	return &model.NotificationAttempt{}, nil
}

func (f *fakeNotifier) NotifyTeacherReviewNeeded(s *model.Submission) {
	f.reviewNeeded = append(f.reviewNeeded, s.ID)
}

func (f *fakeNotifier) NotifyStudentGradePublished(s *model.Submission) {
	f.gradePublished = append(f.gradePublished, s.ID)
}

func (f *fakeNotifier) NotifyStudentAppealResolved(appealID uint, _ *model.User, _ string) {
	f.appealsResolved = append(f.appealsResolved, appealID)
}

func (f *fakeNotifier) GetNotificationsForUser(uint) ([]model.NotificationAttempt, error) {
	return nil, nil
}

func (f *fakeNotifier) RetryFailedNotifications() {}

func (f *fakeNotifier) RunSweep(context.Context) {}

type fakeEnqueuer struct {
	enqueued []uint
	err      error
}

func (f *fakeEnqueuer) EnqueueSubmission(_ context.Context, id uint) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, id)
	return nil
}
