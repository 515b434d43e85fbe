package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lefthander07/UserAPI/internal/model"
	"github.com/Lefthander07/UserAPI/internal/server/middleware"
	"github.com/Lefthander07/UserAPI/internal/service"
	"github.com/Lefthander07/UserAPI/internal/store"
)

// birthdayFormat is the wire format for birth dates: a calendar date
// without a time component.
const birthdayFormat = "2006-01-02"

// UsersHandler exposes the account lifecycle operations over HTTP. It
// consults the access policy once per request and maps the engine's
// collapsed boolean results to status codes: false becomes 404, a login
// conflict 409, and a policy denial 403 that never reveals whether the
// target exists.
type UsersHandler struct {
	users   *service.Users
	authSvc *service.AuthService
	policy  service.Policy
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(users *service.Users, authSvc *service.AuthService, policy service.Policy) *UsersHandler {
	return &UsersHandler{users: users, authSvc: authSvc, policy: policy}
}

func parseBirthday(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(birthdayFormat, *s, time.UTC)
	if err != nil {
		return nil, errors.New("birthday must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// ---------------------------------------------------------------------------
// Create / listings / lookups (admin only)
// ---------------------------------------------------------------------------

type createUserRequest struct {
	Login    string  `json:"login"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Gender   string  `json:"gender"`
	Birthday *string `json:"birthday,omitempty"`
	Admin    bool    `json:"admin"`
}

// Create provisions a new account.
// POST /api/v1/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.policy.CanManage(principal); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := model.ValidateLogin(req.Login); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidateName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	gender, err := model.ParseGender(req.Gender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateParams{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Gender:   gender,
		Birthday: birthday,
		Admin:    req.Admin,
	}, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrLoginTaken) {
			writeError(w, http.StatusConflict, "Login '"+req.Login+"' is already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListActive returns all active accounts ordered by creation time.
// GET /api/v1/users/active
func (h *UsersHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.CanManage(middleware.GetPrincipal(r.Context())); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	users, err := h.users.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetByLogin returns the reduced profile projection for a login.
// GET /api/v1/users/by-login/{login}
func (h *UsersHandler) GetByLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.CanManage(middleware.GetPrincipal(r.Context())); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	user, err := h.users.FindByLogin(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up user: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user.Summarize())
}

// ListOlderThan returns accounts older than the given age in years.
// GET /api/v1/users/older-than/{age}
func (h *UsersHandler) ListOlderThan(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.CanManage(middleware.GetPrincipal(r.Context())); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	age, err := strconv.Atoi(chi.URLParam(r, "age"))
	if err != nil || age < 0 {
		writeError(w, http.StatusBadRequest, "Age must be a non-negative integer")
		return
	}

	users, err := h.users.ListOlderThan(r.Context(), age)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ---------------------------------------------------------------------------
// Credential verification (anonymous)
// ---------------------------------------------------------------------------

type authenticateRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Authenticate verifies a login/password pair and returns the account on
// success. Failures never reveal which factor mismatched or whether the
// account is revoked.
// POST /api/v1/users/authenticate
func (h *UsersHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	user, err := h.authSvc.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials or user is deactivated")
			return
		}
		writeError(w, http.StatusInternalServerError, "Authentication error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ---------------------------------------------------------------------------
// Read by id (admin, or self while active)
// ---------------------------------------------------------------------------

// GetByID returns the full account record.
// GET /api/v1/users/{id}
func (h *UsersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.policy.CanAccess(principal, id); err != nil {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up user: "+err.Error())
		return
	}
	if err := h.policy.CanActOn(principal, user); err != nil {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ---------------------------------------------------------------------------
// Mutations (admin, or self while active)
// ---------------------------------------------------------------------------

// authorizeTarget runs the shared policy checks for mutations on the
// account with the given id. For standard callers this loads the target to
// reject mutation of a revoked account; administrators skip the load since
// the engine enforces the active precondition atomically anyway.
func (h *UsersHandler) authorizeTarget(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.policy.CanAccess(principal, id); err != nil {
		writeError(w, http.StatusForbidden, "Access denied")
		return false
	}
	if principal.IsAdmin {
		return true
	}

	target, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up user: "+err.Error())
		return false
	}
	if err := h.policy.CanActOn(principal, target); err != nil {
		writeError(w, http.StatusForbidden, "User is deactivated")
		return false
	}
	return true
}

type updateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

// UpdateProfile changes name, gender, and birthday. Name and gender are
// applied only when present; the birthday is always overwritten with the
// supplied value, an absent field clearing it.
// PUT /api/v1/users/{id}/profile
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req updateProfileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name != nil {
		if err := model.ValidateName(*req.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	var gender *model.Gender
	if req.Gender != nil {
		g, err := model.ParseGender(*req.Gender)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		gender = &g
	}
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.authorizeTarget(w, r, id) {
		return
	}

	actor := middleware.GetPrincipal(r.Context()).UserID
	ok, err := h.users.UpdateProfile(r.Context(), id, req.Name, gender, birthday, actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ChangePassword replaces the account password.
// PUT /api/v1/users/{id}/password
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.authorizeTarget(w, r, id) {
		return
	}

	actor := middleware.GetPrincipal(r.Context()).UserID
	ok, err := h.users.ChangePassword(r.Context(), id, req.NewPassword, actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to change password: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeLoginRequest struct {
	NewLogin string `json:"new_login"`
}

// ChangeLogin renames the account. A login held by a different account
// yields 409.
// PUT /api/v1/users/{id}/login
func (h *UsersHandler) ChangeLogin(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req changeLoginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := model.ValidateLogin(req.NewLogin); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.authorizeTarget(w, r, id) {
		return
	}

	actor := middleware.GetPrincipal(r.Context()).UserID
	ok, err := h.users.ChangeLogin(r.Context(), id, req.NewLogin, actor)
	if err != nil {
		if errors.Is(err, store.ErrLoginTaken) {
			writeError(w, http.StatusConflict, "Login '"+req.NewLogin+"' is already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to change login: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Delete / restore (admin only)
// ---------------------------------------------------------------------------

// SoftDelete revokes an account by login.
// DELETE /api/v1/users/by-login/{login}
func (h *UsersHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.policy.CanManage(principal); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	ok, err := h.users.SoftDelete(r.Context(), chi.URLParam(r, "login"), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HardDelete permanently removes an account by login.
// DELETE /api/v1/users/by-login/{login}/permanent
func (h *UsersHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.CanManage(middleware.GetPrincipal(r.Context())); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	ok, err := h.users.HardDelete(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore reactivates a revoked account.
// POST /api/v1/users/{id}/restore
func (h *UsersHandler) Restore(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.policy.CanManage(principal); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	ok, err := h.users.Restore(r.Context(), id, principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to restore user: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
