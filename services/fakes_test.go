package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/repositories"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		SignedURLTTLSeconds:    3600,
		FileURLTTLSeconds:      300,
		MaxUploadSizeMB:        5,
		StagedUploadTTLMinutes: 60,
		InstituteEmailDomain:   "nitt.edu",
		OTPLength:              6,
		OTPTTLMinutes:          10,
		OTPCooldownSeconds:     60,
	}
}

// fakeApplicationRepo is an in-memory ApplicationRepository. Reads return copies.
type fakeApplicationRepo struct {
	mu        sync.Mutex
	rows      []models.Application
	nextID    uint
	createErr error
	countErr  error
}

func (r *fakeApplicationRepo) add(app models.Application) *models.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	app.ID = r.nextID
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	}
	r.rows = append(r.rows, app)
	out := app
	return &out
}

func (r *fakeApplicationRepo) index(match func(models.Application) bool) int {
	for i, a := range r.rows {
		if match(a) {
			return i
		}
	}
	return -1
}

func (r *fakeApplicationRepo) List(_ context.Context, f repositories.ApplicationFilter) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(f.Search)
	var out []models.Application
	for _, a := range r.rows {
		if a.IsDeleted {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.UserType != "" && a.UserType != f.UserType {
			continue
		}
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchesSearch(a models.Application, lowered string) bool {
	for _, v := range []string{a.Name, a.Email, a.RollNo, a.ApplicationID} {
		if strings.Contains(strings.ToLower(v), lowered) {
			return true
		}
	}
	return false
}

func (r *fakeApplicationRepo) FindByIDOrApplicationID(_ context.Context, id string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, numErr := strconv.ParseUint(id, 10, 64)
	i := r.index(func(a models.Application) bool {
		return (numErr == nil && uint64(a.ID) == n) || a.ApplicationID == id
	})
	if i < 0 {
		return nil, repositories.ErrNotFound
	}
	out := r.rows[i]
	return &out, nil
}

func (r *fakeApplicationRepo) FindByApplicationID(_ context.Context, applicationID string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(func(a models.Application) bool { return a.ApplicationID == applicationID })
	if i < 0 {
		return nil, repositories.ErrNotFound
	}
	out := r.rows[i]
	return &out, nil
}

func (r *fakeApplicationRepo) Create(_ context.Context, app *models.Application) error {
	if r.createErr != nil {
		return r.createErr
	}
	created := r.add(*app)
	app.ID = created.ID
	app.CreatedAt = created.CreatedAt
	return nil
}

func (r *fakeApplicationRepo) UpdateStatus(_ context.Context, id uint, status string, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(func(a models.Application) bool { return a.ID == id })
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.rows[i].Status = status
	if reason != nil {
		r.rows[i].RejectionReason = *reason
	}
	r.rows[i].UpdatedAt = time.Now()
	return nil
}

func (r *fakeApplicationRepo) SoftDelete(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(func(a models.Application) bool { return a.ID == id })
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.rows[i].IsDeleted = true
	r.rows[i].DeletedAt = &at
	return nil
}

func (r *fakeApplicationRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(func(a models.Application) bool { return a.ID == id })
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return nil
}

func (r *fakeApplicationRepo) Count(_ context.Context, f repositories.CountFilter) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.rows {
		if a.IsDeleted {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if len(f.UserTypes) > 0 && !containsString(f.UserTypes, a.UserType) {
			continue
		}
		n++
	}
	return n, nil
}

// fakeStore records storage calls. Keys listed in failSign cannot be signed and
// Delete panics when panicOnDelete is set and otherwise returns deleteErr after recording the key.
type fakeStore struct {
	mu            sync.Mutex
	deleted       []string
	put           map[string][]byte
	putTypes      map[string]string
	putErr        error
	failSign      map[string]bool
	deleteErr     error
	panicOnDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{put: map[string][]byte{}, putTypes: map[string]string{}, failSign: map[string]bool{}}
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) string {
	url, err := s.PresignGet(ctx, key, ttl)
	if err != nil {
		return ""
	}
	return url
}

func (s *fakeStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSign[key] {
		return "", errors.New("signing failed")
	}
	return "https://signed.example/" + key + "?ttl=" + strconv.Itoa(int(ttl.Seconds())), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	if s.panicOnDelete {
		panic("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put[key] = b
	s.putTypes[key] = contentType
	return nil
}

func (s *fakeStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.deleted...)
	sort.Strings(out)
	return out
}

// fakeStagedRepo keeps staged rows by object key. Attached consults apps when set.
type fakeStagedRepo struct {
	mu        sync.Mutex
	rows      map[string]models.StagedUpload
	apps      *fakeApplicationRepo
	deleteErr error
}

func newFakeStagedRepo() *fakeStagedRepo {
	return &fakeStagedRepo{rows: map[string]models.StagedUpload{}}
}

func (r *fakeStagedRepo) Create(_ context.Context, s *models.StagedUpload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uint(len(r.rows) + 1)
	r.rows[s.ObjectKey] = *s
	return nil
}

func (r *fakeStagedRepo) DeleteByKeys(_ context.Context, keys []string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.rows, k)
	}
	return nil
}

func (r *fakeStagedRepo) ListExpired(_ context.Context, before time.Time, limit int) ([]models.StagedUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StagedUpload
	for _, s := range r.rows {
		if !s.ExpireAt.After(before) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStagedRepo) Attached(ctx context.Context, applicationID string) (bool, error) {
	if r.apps == nil || applicationID == "" {
		return false, nil
	}
	_, err := r.apps.FindByApplicationID(ctx, applicationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeStagedRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.rows {
		if s.ID == id {
			delete(r.rows, k)
		}
	}
	return nil
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	rows   []models.Admin
	nextID uint
}

func (r *fakeAdminRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Username == username || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAdminRepo) Create(_ context.Context, a *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	r.rows = append(r.rows, *a)
	return nil
}

func (r *fakeAdminRepo) List(_ context.Context) ([]models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.Admin(nil), r.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAdminRepo) FindByUsername(_ context.Context, username string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAdminRepo) FindByID(_ context.Context, id uint) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAdminRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.rows {
		if a.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeAdminRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func mustParseDay(t interface{ Fatalf(string, ...interface{}) }, day string) time.Time {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("parse %s: %v", day, err)
	}
	return d
}

const testOTPTTL = 10 * time.Minute
