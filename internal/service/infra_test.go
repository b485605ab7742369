package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

func TestAppErrorHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrValidation:     http.StatusBadRequest,
		ErrAuthentication: http.StatusUnauthorized,
		ErrForbidden:      http.StatusForbidden,
		ErrNotFound:       http.StatusNotFound,
		ErrRateLimited:    http.StatusTooManyRequests,
		ErrDatabase:       http.StatusInternalServerError,
		ErrInternal:       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, NewError(code, "x", nil).HTTPStatus(), code)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ValidationError("name is required"))
	assert.Equal(t, ErrValidation, CodeOf(wrapped))
	assert.Equal(t, "name is required", AsAppError(wrapped).Public())

	assert.Equal(t, ErrNotFound, CodeOf(repository.ErrNotFound))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, ErrorCode(0), CodeOf(nil))

	dbErr := DatabaseError(errors.New("disk full"))
	assert.Contains(t, dbErr.Public(), "disk full")
	assert.True(t, dbErr.HasCode(ErrDatabase))
}

func TestValidatorCollectsErrors(t *testing.T) {
	bad := "2024-13-40"
	err := NewValidator().
		Required("", "name").
		Date(&bad, "birth_date").
		Gender("robot", "gender").
		Generation(0, "generation").
		RelationshipType("cousin", "relationship_type").
		Validate()
	require.Error(t, err)
	assert.Equal(t, ErrValidation, CodeOf(err))
	for _, field := range []string{"name", "birth_date", "gender", "generation", "relationship_type"} {
		assert.Contains(t, err.Error(), field)
	}

	good := "2024-02-29"
	assert.NoError(t, NewValidator().
		Required("Alice", "name").
		Date(&good, "birth_date").
		Date(nil, "death_date").
		Gender("", "gender").
		Generation(1, "generation").
		Validate())
}

func TestAuthTokens(t *testing.T) {
	auth := NewAuth(AuthConfig{SecretKey: "secret", TokenDuration: time.Hour})
	require.True(t, auth.Enabled())

	token, err := auth.GenerateToken("admin", "editor")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Editor)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, "admin", claims.Subject)

	other := NewAuth(AuthConfig{SecretKey: "another"})
	_, err = other.ValidateToken(token)
	assert.Equal(t, ErrAuthentication, CodeOf(err))

	_, err = auth.ValidateToken("not.a.token")
	assert.Equal(t, ErrAuthentication, CodeOf(err))

	disabled := NewAuth(AuthConfig{})
	assert.False(t, disabled.Enabled())
	_, err = disabled.GenerateToken("admin", "editor")
	assert.Equal(t, ErrConfig, CodeOf(err))
}

func TestTokenBucketLimiter(t *testing.T) {
	limiter := NewTokenBucketLimiter(rate.Limit(0.001), 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestNewRateLimiterFallsBackToTokenBucket(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Rate: 5}, nil, zap.NewNop())
	_, ok := limiter.(*TokenBucketLimiter)
	assert.True(t, ok)
}

// 最小的PNG文件头
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["photo"], 1)
	return form.File["photo"][0]
}

func TestUploadService(t *testing.T) {
	dir := t.TempDir()
	uploads, err := NewUploadService(UploadConfig{Dir: dir, MaxSize: 1 << 10, MaxFiles: 2}, zap.NewNop(), nil)
	require.NoError(t, err)

	saved, err := uploads.UploadFile(fileHeader(t, "家族 合影.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", saved.MimeType)
	assert.Equal(t, "/uploads/"+saved.Filename, saved.Path)
	assert.FileExists(t, filepath.Join(dir, saved.Filename))
	assert.NotContains(t, saved.Filename, " ")

	_, err = uploads.UploadFile(fileHeader(t, "notes.png", []byte("just some text")))
	assert.Equal(t, ErrValidation, CodeOf(err))

	_, err = uploads.UploadFiles(nil)
	assert.Equal(t, ErrValidation, CodeOf(err))

	files, err := uploads.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, saved.Filename, files[0].Filename)

	assert.Equal(t, ErrValidation, CodeOf(uploads.DeleteFile("../secret.db")))
	assert.Equal(t, ErrNotFound, CodeOf(uploads.DeleteFile("missing.png")))
	require.NoError(t, uploads.DeleteFile(saved.Filename))
	assert.NoFileExists(t, filepath.Join(dir, saved.Filename))
}

func TestUploadNamesFileBySniffedType(t *testing.T) {
	uploads, err := NewUploadService(UploadConfig{Dir: t.TempDir()}, zap.NewNop(), nil)
	require.NoError(t, err)

	for _, name := range []string{"x.html", "x.svg", "noext"} {
		saved, err := uploads.UploadFile(fileHeader(t, name, pngHeader))
		require.NoError(t, err, name)
		assert.Equal(t, ".png", filepath.Ext(saved.Filename), name)
		assert.Equal(t, "image/png", saved.MimeType, name)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	uploads, err := NewUploadService(UploadConfig{Dir: t.TempDir(), MaxSize: 16}, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = uploads.UploadFile(fileHeader(t, "big.png", pngHeader))
	assert.Equal(t, ErrValidation, CodeOf(err))
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8088"
  mode: debug
database:
  type: sqlite
  path: /tmp/familytree-test.db
auth:
  jwt_secret: s3cret
backup:
  interval: 6h
  keep: 3
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "/tmp/familytree-test.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.Auth.SecretKey)
	assert.Equal(t, 6*time.Hour, cfg.Backup.Interval)
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.Equal(t, int64(5242880), cfg.Upload.MaxSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ErrConfig, CodeOf(err))
}

func TestSchedulerRunsJobUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(zap.NewNop(), time.Second)

	var runs int32
	done := make(chan struct{})
	s.Every(ctx, "count", 5*time.Millisecond, func(context.Context) error {
		if atomic.AddInt32(&runs, 1) == 2 {
			close(done)
		}
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	s.Wait()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestBackupAndPrune(t *testing.T) {
	e := newTestEnv(t)
	e.create(t, model.PersonInput{Name: "Alice"})
	maint := NewMaintenanceService(e.db, zap.NewNop())

	dir := t.TempDir()
	path, err := maint.Backup(e.ctx, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	for _, stamp := range []string{"2020-01-01T00-00-00", "2020-01-02T00-00-00", "2020-01-03T00-00-00"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "familytree-"+stamp+".db"), nil, 0644))
	}

	removed, err := maint.Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "familytree-2020-01-03T00-00-00.db"))
	assert.NoFileExists(t, filepath.Join(dir, "familytree-2020-01-01T00-00-00.db"))

	restored, err := repository.InitDB(e.ctx, repository.Config{Type: repository.DriverSQLite, Path: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	defer restored.Close()
	people, err := repository.NewPersonRepository(restored).List(e.ctx, model.PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, people, 1)
}

func TestSeedOnlyOnce(t *testing.T) {
	e := newTestEnv(t)
	maint := NewMaintenanceService(e.db, zap.NewNop())

	tree, err := maint.Seed(e.ctx)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, int64(16), tree.MemberCount)

	again, err := maint.Seed(e.ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}
