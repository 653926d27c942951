package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/server/metrics"
	"github.com/dkovalev/notelist/internal/server/models"
	"github.com/dkovalev/notelist/internal/server/services"
	"github.com/gorilla/mux"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type noteResponse struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   int64      `json:"version"`
}

// errorResponse is the uniform failure body. Values echoes back the submitted
// fields so a client can re-render the form; passwords are never included.
type errorResponse struct {
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

func toNoteResponse(n *models.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Version:   n.Version,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeForm reads the request payload into a flat field map, accepting
// either a JSON object or a form-encoded body.
func decodeForm(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var m map[string]string
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		m[k] = r.PostForm.Get(k)
	}
	return m, nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "malformed request"})
		return
	}

	in := services.RegisterInput{
		Username:        form["username"],
		Email:           form["email"],
		Password:        form["password"],
		ConfirmPassword: form["confirm_password"],
	}

	user, err := s.users.Register(r.Context(), in)
	if err != nil {
		s.writeRegisterError(w, r, err, in)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", user.Username)
	metrics.RegistrationsCounter.Inc()

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (s *Server) writeRegisterError(w http.ResponseWriter, r *http.Request, err error, in services.RegisterInput) {
	values := map[string]string{"username": in.Username, "email": in.Email}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: verr.Fields, Values: values})
		return
	}

	fields := map[string]string{}
	if errors.Is(err, common.ErrUsernameTaken) {
		fields["Username"] = "username is already taken"
	}
	if errors.Is(err, common.ErrEmailTaken) {
		fields["Email"] = "email is already registered"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: fields, Values: values})
		return
	}

	s.logger.Error(r.Context(), "registration failed", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: "an error occurred while processing your registration, please try again later",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "malformed request"})
		return
	}

	token, user, err := s.users.Login(r.Context(), form["username"], form["password"])
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			metrics.LoginsCounter.WithLabelValues("rejected").Inc()
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Message: "invalid username or password",
				Values:  map[string]string{"username": form["username"]},
			})
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err.Error())
		metrics.LoginsCounter.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "an error occurred during log in, please try again later",
		})
		return
	}

	setSessionCookie(w, token, s.sessionValidity)
	metrics.LoginsCounter.WithLabelValues("ok").Inc()
	s.logger.Info(r.Context(), "Logged in", "username", user.Username)

	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(common.SessionCookieName); err == nil && cookie.Value != "" {
		// Best effort: revoke the server-side session even if the token is
		// past its expiry.
		if claims, err := s.users.Authenticate(r.Context(), cookie.Value); err == nil {
			_ = s.users.Logout(r.Context(), claims.ID)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	notes, err := s.notes.List(r.Context(), claims.UserID)
	if err != nil {
		s.writeNoteError(w, r, err, nil)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for i := range notes {
		resp = append(resp, toNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "malformed request"})
		return
	}

	in := services.NoteInput{Title: form["title"], Content: form["content"]}

	note, err := s.notes.Create(r.Context(), claims.UserID, in)
	if err != nil {
		s.writeNoteError(w, r, err, &in)
		return
	}

	metrics.NoteWritesCounter.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "note not found"})
		return
	}

	note, err := s.notes.Get(r.Context(), claims.UserID, noteID)
	if err != nil {
		s.writeNoteError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "note not found"})
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "malformed request"})
		return
	}

	// The version the client read is what makes conflict detection work; an
	// update without one cannot distinguish stale from fresh.
	if form["version"] == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Errors: map[string]string{"Version": "version is required"},
		})
		return
	}
	version, err := strconv.ParseInt(form["version"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Errors: map[string]string{"Version": "version must be a number"},
		})
		return
	}

	in := services.NoteInput{Title: form["title"], Content: form["content"]}

	note, err := s.notes.Update(r.Context(), claims.UserID, noteID, in, version)
	if err != nil {
		s.writeNoteError(w, r, err, &in)
		return
	}

	metrics.NoteWritesCounter.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	noteID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		// Idempotent: an unparseable id cannot name an owned note.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.notes.Delete(r.Context(), claims.UserID, noteID); err != nil {
		s.writeNoteError(w, r, err, nil)
		return
	}

	metrics.NoteWritesCounter.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// writeNoteError maps note service failures onto the wire. Internal detail
// never reaches the client; it is logged server-side instead.
func (s *Server) writeNoteError(w http.ResponseWriter, r *http.Request, err error, in *services.NoteInput) {
	var values map[string]string
	if in != nil {
		values = map[string]string{"title": in.Title, "content": in.Content}
	}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: verr.Fields, Values: values})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "note not found"})
	case errors.Is(err, common.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Message: "the note was modified concurrently, please re-fetch and retry",
			Values:  values,
		})
	default:
		s.logger.Error(r.Context(), "note operation failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "an unexpected error occurred"})
	}
}
