package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"jobsite/internal/common"
	"jobsite/internal/domain/application"
	"jobsite/internal/domain/auth"
	"jobsite/internal/domain/job"
	"jobsite/internal/domain/policy"
	"jobsite/internal/domain/user"
)

// memStore backs the job and application fakes so recounts see real rows.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	jobs    map[int64]*job.Job
	apps    map[int64]*application.Application
	seq     time.Time
	failing map[string]error
	locks   []jobLock
}

type jobLock struct {
	uid  string
	inTx bool
}

func newMemStore() *memStore {
	return &memStore{
		jobs:    make(map[int64]*job.Job),
		apps:    make(map[int64]*application.Application),
		seq:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failing: make(map[string]error),
	}
}

func (m *memStore) tick() (int64, time.Time) {
	m.nextID++
	m.seq = m.seq.Add(time.Second)
	return m.nextID, m.seq
}

type fakeJobRepo struct{ *memStore }

func (r fakeJobRepo) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, now := r.tick()
	j.ID = id
	j.UID = fmt.Sprintf("JOB-%08X", id)
	j.CreatedAt = now
	j.UpdatedAt = now
	r.jobs[id] = &j
	copy := j
	return &copy, nil
}

func (r fakeJobRepo) Update(ctx context.Context, j job.Job) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return nil, common.NewError(common.CodeNotFound, "job not found", nil)
	}
	j.UpdatedAt = r.seq
	r.jobs[j.ID] = &j
	copy := j
	return &copy, nil
}

func (r fakeJobRepo) GetByUID(ctx context.Context, uid string) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.jobs {
		if item.UID == uid {
			copy := *item
			return &copy, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "job not found", nil)
}

func (r fakeJobRepo) GetByUIDForUpdate(ctx context.Context, uid string) (*job.Job, error) {
	r.mu.Lock()
	_, inTx := ctx.Value(inlineTxKey{}).(bool)
	r.locks = append(r.locks, jobLock{uid: uid, inTx: inTx})
	r.mu.Unlock()
	return r.GetByUID(ctx, uid)
}

func (r fakeJobRepo) List(ctx context.Context, filter job.ListFilter) ([]job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []job.Job{}
	for _, item := range r.jobs {
		if filter.PublishedOnly && item.Status != job.StatusPublished {
			continue
		}
		if filter.RecruiterID != 0 && item.RecruiterID != filter.RecruiterID {
			continue
		}
		if len(filter.Skills) > 0 && !overlaps(item.SkillsRequired, filter.Skills) {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if filter.Offset >= len(items) {
		return []job.Job{}, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func overlaps(have, want []string) bool {
	for _, a := range have {
		for _, b := range want {
			if a == b {
				return true
			}
		}
	}
	return false
}

func (r fakeJobRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	for appID, item := range r.apps {
		if item.JobID == id {
			delete(r.apps, appID)
		}
	}
	return nil
}

func (r fakeJobRepo) SetStatus(ctx context.Context, id int64, status job.Status) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.jobs[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "job not found", nil)
	}
	item.Status = status
	copy := *item
	return &copy, nil
}

func (r fakeJobRepo) RecountApplications(ctx context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failing["recount"]; err != nil {
		return 0, err
	}
	count := 0
	for _, item := range r.apps {
		if item.JobID == id {
			count++
		}
	}
	r.jobs[id].ApplicationsCount = count
	return count, nil
}

func (r fakeJobRepo) IncrementViews(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].ViewsCount++
	return nil
}

func (r fakeJobRepo) RecruiterStats(ctx context.Context, recruiterID int64) (*job.RecruiterStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &job.RecruiterStats{}
	owned := map[int64]bool{}
	for _, item := range r.jobs {
		if item.RecruiterID != recruiterID {
			continue
		}
		owned[item.ID] = true
		switch item.Status {
		case job.StatusPublished:
			stats.TotalPublishedJobs++
		case job.StatusClosed:
			stats.TotalClosedJobs++
		}
	}
	for _, item := range r.apps {
		if !owned[item.JobID] {
			continue
		}
		stats.TotalApplications++
		switch item.Status {
		case application.StatusAccepted:
			stats.TotalCandidatesHired++
		case application.StatusRejected:
			stats.TotalCandidatesRejected++
		}
	}
	return stats, nil
}

type fakeAppRepo struct{ *memStore }

func (r fakeAppRepo) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.apps {
		if item.JobID == app.JobID && item.CandidateID == app.CandidateID {
			return nil, application.ErrDuplicate()
		}
	}
	id, now := r.tick()
	app.ID = id
	app.UID = common.NewUUID()
	app.CreatedAt = now
	app.UpdatedAt = now
	if target, ok := r.jobs[app.JobID]; ok {
		app.JobUID = target.UID
		app.JobTitle = target.Title
		app.JobRecruiterID = target.RecruiterID
	}
	r.apps[id] = &app
	copy := app
	return &copy, nil
}

func (r fakeAppRepo) GetByUID(ctx context.Context, uid string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.apps {
		if item.UID.String() == uid {
			copy := *item
			return &copy, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "application not found", nil)
}

func (r fakeAppRepo) Exists(ctx context.Context, jobID, candidateID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.apps {
		if item.JobID == jobID && item.CandidateID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeAppRepo) list(keep func(application.Application) bool) []application.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []application.Application{}
	for _, item := range r.apps {
		if keep(*item) {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

func (r fakeAppRepo) ListByCandidate(ctx context.Context, candidateID int64) ([]application.Application, error) {
	return r.list(func(a application.Application) bool { return a.CandidateID == candidateID }), nil
}

func (r fakeAppRepo) ListByRecruiter(ctx context.Context, recruiterID int64) ([]application.Application, error) {
	return r.list(func(a application.Application) bool { return a.JobRecruiterID == recruiterID }), nil
}

func (r fakeAppRepo) ListResumesByJob(ctx context.Context, jobID int64) ([]string, error) {
	var refs []string
	for _, item := range r.list(func(a application.Application) bool { return a.JobID == jobID }) {
		refs = append(refs, item.Resume)
	}
	return refs, nil
}

func (r fakeAppRepo) UpdateStatus(ctx context.Context, id int64, status application.Status) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.apps[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	item.Status = status
	copy := *item
	return &copy, nil
}

// inlineTx runs the callback directly. It does not roll back.
type inlineTx struct{ calls int }

type inlineTxKey struct{}

func (t *inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(context.WithValue(ctx, inlineTxKey{}, true))
}

type memResumes struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newMemResumes() *memResumes {
	return &memResumes{files: make(map[string][]byte)}
}

func (s *memResumes) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("resumes/%d_%s", len(s.files)+len(s.deleted)+1, filename)
	s.files[ref] = data
	return ref, nil
}

func (s *memResumes) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[ref]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "resume not found", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memResumes) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, account user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == account.Email {
			return nil, common.NewValidationError("email taken", map[string]string{"email": "A user with this email already exists."})
		}
	}
	r.nextID++
	account.ID = r.nextID
	account.UID = common.NewUUID()
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	r.byID[account.ID] = &account
	copy := account
	return &copy, nil
}

func (r *fakeUserRepo) find(match func(user.User) bool) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.byID {
		if match(*account) {
			copy := *account
			return &copy, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "user not found", nil)
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.find(func(u user.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByUID(ctx context.Context, uid common.UUID) (*user.User, error) {
	return r.find(func(u user.User) bool { return u.UID == uid })
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.find(func(u user.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return common.NewError(common.CodeNotFound, "user not found", nil)
	}
	account.PasswordHash = passwordHash
	return nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]auth.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]auth.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Store(ctx context.Context, token auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.tokens[token]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "refresh token not found", nil)
	}
	copy := value
	return &copy, nil
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, token string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.tokens[token]
	if !ok {
		return common.NewError(common.CodeNotFound, "refresh token not found", nil)
	}
	value.RevokedAt = &revokedAt
	r.tokens[token] = value
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAll(ctx context.Context, userID int64, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, value := range r.tokens {
		if value.UserID == userID && value.RevokedAt == nil {
			value.RevokedAt = &revokedAt
			r.tokens[key] = value
		}
	}
	return nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]auth.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]auth.PasswordResetToken)}
}

func (r *fakeResetRepo) Store(ctx context.Context, token auth.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeResetRepo) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.tokens[token]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "reset token not found", nil)
	}
	copy := value
	return &copy, nil
}

func (r *fakeResetRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, value := range r.tokens {
		if value.ID.String() == id {
			value.UsedAt = &usedAt
			r.tokens[key] = value
			return nil
		}
	}
	return common.NewError(common.CodeNotFound, "reset token not found", nil)
}

type sentMail struct {
	kind string
	to   string
	link string
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (n *fakeNotifier) Welcome(ctx context.Context, account user.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "welcome", to: account.Email})
	return n.err
}

func (n *fakeNotifier) PasswordReset(ctx context.Context, account user.User, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "reset", to: account.Email, link: link})
	return n.err
}

// plainHasher keeps tests fast; argon2 is covered in the security package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain$") {
		return false, errors.New("malformed hash")
	}
	return encoded == "plain$"+password, nil
}

var (
	recruiterA = policy.Actor{UserID: 100, UID: "11111111-1111-4111-8111-111111111111", Role: user.RoleRecruiter}
	recruiterB = policy.Actor{UserID: 200, UID: "22222222-2222-4222-8222-222222222222", Role: user.RoleRecruiter}
	candidateA = policy.Actor{UserID: 300, UID: "33333333-3333-4333-8333-333333333333", Role: user.RoleCandidate}
	candidateB = policy.Actor{UserID: 400, UID: "44444444-4444-4444-8444-444444444444", Role: user.RoleCandidate}
)
