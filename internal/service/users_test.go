package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lefthander07/UserAPI/internal/model"
	"github.com/Lefthander07/UserAPI/internal/store"
)

func newTestUsers(t *testing.T) (*Users, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{}) // in-memory SQLite
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUsers(st, logger), st
}

func TestCreateHashesPassword(t *testing.T) {
	users, _ := newTestUsers(t)
	ctx := context.Background()
	actor := uuid.New()

	u, err := users.Create(ctx, CreateParams{
		Login:    "alice",
		Password: "secret123",
		Name:     "Alice",
		Gender:   model.GenderFemale,
	}, actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if u.PasswordHash == "secret123" {
		t.Fatal("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if u.CreatedBy != actor {
		t.Errorf("created_by = %s, want %s", u.CreatedBy, actor)
	}
	if u.ID == uuid.Nil {
		t.Error("user id must be assigned")
	}
}

func TestCreateDuplicateLoginSurfacesConflict(t *testing.T) {
	users, _ := newTestUsers(t)
	ctx := context.Background()

	mustCreateUser(t, users, "alice", false)
	_, err := users.Create(ctx, CreateParams{
		Login: "alice", Password: "other1", Name: "Clone", Gender: model.GenderUnknown,
	}, uuid.Nil)
	if !errors.Is(err, store.ErrLoginTaken) {
		t.Fatalf("Create(duplicate) = %v, want ErrLoginTaken", err)
	}
}

func mustCreateUser(t *testing.T, users *Users, login string, admin bool) *model.User {
	t.Helper()
	u, err := users.Create(context.Background(), CreateParams{
		Login:    login,
		Password: "secret123",
		Name:     "Test User",
		Gender:   model.GenderUnknown,
		Admin:    admin,
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("Create(%s): %v", login, err)
	}
	return u
}

func TestBootstrapSeedsOnce(t *testing.T) {
	users, st := newTestUsers(t)
	ctx := context.Background()

	seeded, err := users.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !seeded {
		t.Fatal("first Bootstrap must seed the admin")
	}

	admin, err := st.GetByLogin(ctx, BootstrapLogin)
	if err != nil {
		t.Fatalf("GetByLogin(admin): %v", err)
	}
	if !admin.Admin {
		t.Error("seed account must be an administrator")
	}
	if admin.CreatedBy != uuid.Nil {
		t.Errorf("seed created_by = %s, want nil uuid", admin.CreatedBy)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(BootstrapLogin)); err != nil {
		t.Errorf("seed password mismatch: %v", err)
	}

	// Second run is a no-op.
	seeded, err = users.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	if seeded {
		t.Error("second Bootstrap must not seed again")
	}
}

func TestBootstrapSkippedWhenAdminExists(t *testing.T) {
	users, _ := newTestUsers(t)

	mustCreateUser(t, users, "root", true)

	seeded, err := users.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if seeded {
		t.Error("Bootstrap must not seed when an admin already exists")
	}
}

func TestChangeLoginConflict(t *testing.T) {
	users, _ := newTestUsers(t)
	ctx := context.Background()

	alice := mustCreateUser(t, users, "alice", false)
	mustCreateUser(t, users, "bob", false)

	_, err := users.ChangeLogin(ctx, alice.ID, "bob", uuid.Nil)
	if !errors.Is(err, store.ErrLoginTaken) {
		t.Fatalf("ChangeLogin(taken) = %v, want ErrLoginTaken", err)
	}

	// Renaming to the current login is allowed; the pre-check excludes self.
	ok, err := users.ChangeLogin(ctx, alice.ID, "alice", uuid.Nil)
	if err != nil || !ok {
		t.Fatalf("ChangeLogin(self) = %v, %v; want true, nil", ok, err)
	}

	ok, err = users.ChangeLogin(ctx, uuid.New(), "newname", uuid.Nil)
	if err != nil || ok {
		t.Fatalf("ChangeLogin(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestLifecycleRoundTrip(t *testing.T) {
	users, _ := newTestUsers(t)
	ctx := context.Background()
	actor := uuid.New()

	u := mustCreateUser(t, users, "alice", false)

	ok, err := users.SoftDelete(ctx, "alice", actor)
	if err != nil || !ok {
		t.Fatalf("SoftDelete = %v, %v", ok, err)
	}

	ok, err = users.Restore(ctx, u.ID, actor)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	ok, err = users.Restore(ctx, u.ID, actor)
	if err != nil || ok {
		t.Fatalf("second Restore = %v, %v; want false, nil", ok, err)
	}

	got, err := users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !got.IsActive() {
		t.Error("restored account must be active")
	}
}

func TestChangePasswordRehashes(t *testing.T) {
	users, st := newTestUsers(t)
	ctx := context.Background()

	u := mustCreateUser(t, users, "alice", false)

	ok, err := users.ChangePassword(ctx, u.ID, "newpass42", uuid.Nil)
	if err != nil || !ok {
		t.Fatalf("ChangePassword = %v, %v", ok, err)
	}

	got, err := st.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("newpass42")); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("secret123")) == nil {
		t.Error("old password still verifies")
	}
}

func TestListOlderThanUsesCalendarYears(t *testing.T) {
	users, st := newTestUsers(t)
	ctx := context.Background()

	now := time.Now().UTC()

	fortyYears := mustCreateUser(t, users, "forty", false)
	fortyBday := time.Date(now.Year()-40, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if _, err := st.UpdateProfile(ctx, fortyYears.ID, nil, nil, &fortyBday, uuid.Nil, now); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	tenYears := mustCreateUser(t, users, "ten", false)
	tenBday := time.Date(now.Year()-10, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if _, err := st.UpdateProfile(ctx, tenYears.ID, nil, nil, &tenBday, uuid.Nil, now); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := users.ListOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(got) != 1 || got[0].Login != "forty" {
		t.Errorf("ListOlderThan(30) = %d users, want exactly forty", len(got))
	}
}
