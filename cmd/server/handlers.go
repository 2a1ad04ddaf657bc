package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
	"github.com/bhagyashreemodi/emergency-connect/internal/services"
)

type contextKey string

const usernameKey contextKey = "username"

type server struct {
	auth       *services.AuthService
	chat       *services.ChatService
	tasks      *services.TaskService
	users      repositories.UserRepository
	volunteers repositories.VolunteerRepository
	logger     *logger.Logger
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// requireAuth validates the bearer token and the backing session, and
// stores the authenticated username in the request context.
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			s.writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := s.auth.VerifySession(r.Context(), token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrUsernameExists):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUsernameTooShort),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrUsernameReserved):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("register failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		s.writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("login failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
		"username":   resp.Username,
	})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.LogoutAll(r.Context(), token); err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

func (s *server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !models.ValidStatus(req.Status) {
		s.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.users.SetStatus(r.Context(), usernameFrom(r.Context()), req.Status); err != nil {
		s.logger.Error("failed to update status", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

type publicMessageRequest struct {
	Content string `json:"content"`
}

func (s *server) handleSendPublicMessage(w http.ResponseWriter, r *http.Request) {
	var req publicMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := s.chat.SendPublicMessage(r.Context(), usernameFrom(r.Context()), req.Content)
	if err != nil {
		s.logger.Error("failed to send public message", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, message)
}

func (s *server) handlePublicHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.PublicHistory(r.Context())
	if err != nil {
		s.logger.Error("failed to load public history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, messages)
}

type privateMessageRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Content           string `json:"content"`
}

func (s *server) handleSendPrivateMessage(w http.ResponseWriter, r *http.Request) {
	var req privateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipientUsername == "" || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := s.chat.SendPrivateMessage(r.Context(), usernameFrom(r.Context()), req.RecipientUsername, req.Content)
	if errors.Is(err, services.ErrRecipientNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to send private message", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, message)
}

func (s *server) handlePrivateHistory(w http.ResponseWriter, r *http.Request) {
	other := chi.URLParam(r, "username")
	messages, err := s.chat.PrivateHistory(r.Context(), usernameFrom(r.Context()), other)
	if err != nil {
		s.logger.Error("failed to load private history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *server) handleUpsertVolunteer(w http.ResponseWriter, r *http.Request) {
	var volunteer models.Volunteer
	if err := json.NewDecoder(r.Body).Decode(&volunteer); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	volunteer.Username = usernameFrom(r.Context())
	if !volunteer.Validate() {
		s.writeError(w, http.StatusBadRequest, "invalid volunteer profile")
		return
	}

	if err := s.volunteers.Upsert(r.Context(), &volunteer); err != nil {
		s.logger.Error("failed to upsert volunteer profile", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, volunteer)
}

func (s *server) handleGetVolunteer(w http.ResponseWriter, r *http.Request) {
	volunteer, err := s.volunteers.GetByUsername(r.Context(), usernameFrom(r.Context()))
	if errors.Is(err, repositories.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "no volunteer profile")
		return
	}
	if err != nil {
		s.logger.Error("failed to get volunteer profile", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, volunteer)
}

func (s *server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil || task.Title == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tasks.CreateTask(r.Context(), &task); err != nil {
		s.logger.Error("failed to create task", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListOpenForAssignee(r.Context(), usernameFrom(r.Context()))
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.AcceptTask(r.Context(), chi.URLParam(r, "title"), usernameFrom(r.Context()))
	s.writeTaskDecision(w, task, err, "accept")
}

func (s *server) handleDeclineTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.DeclineTask(r.Context(), chi.URLParam(r, "title"), usernameFrom(r.Context()))
	s.writeTaskDecision(w, task, err, "decline")
}

func (s *server) writeTaskDecision(w http.ResponseWriter, task *models.Task, err error, action string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, services.ErrTaskNotOpen):
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("failed to "+action+" task", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		s.writeJSON(w, http.StatusOK, task)
	}
}

func (s *server) handlePostAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req publicMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	announcement, err := s.chat.PostAnnouncement(r.Context(), usernameFrom(r.Context()), req.Content)
	if err != nil {
		s.logger.Error("failed to post announcement", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, announcement)
}

func (s *server) handleAnnouncementHistory(w http.ResponseWriter, r *http.Request) {
	announcements, err := s.chat.AnnouncementHistory(r.Context())
	if err != nil {
		s.logger.Error("failed to load announcements", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, announcements)
}
