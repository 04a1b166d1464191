package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-account-service/accounts"
	"github.com/jrsteele09/go-account-service/avatars"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/pkg/errors"
)

// SessionResponse is returned by signup and login
type SessionResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler creates an account and opens its first session
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accounts.SignupRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		user, token, err := s.accounts.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, SessionResponse{User: user, Token: token})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, apperrors.ErrInvalidCredentials)
			return
		}

		user, token, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{User: user, Token: token})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		if err := s.accounts.Logout(r.Context(), user, tokenFromContext(r.Context())); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		if err := s.accounts.LogoutAll(r.Context(), user); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) MeHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		me, err := s.accounts.MeUser(r.Context(), user)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, me)
	})
}

// UpdateMeHandler applies a partial update; only allow-listed fields are accepted
func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		var fields map[string]json.RawMessage
		if err := decodeJSON(w, r, &fields); err != nil {
			writeServiceError(w, r, err)
			return
		}

		updated, err := s.accounts.UpdateUser(r.Context(), user, fields)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})
}

func (s *Server) DeleteMeHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		removed, err := s.accounts.RemoveUser(r.Context(), user)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, removed)
	})
}

// UploadAvatarHandler accepts a multipart "avatar" file or a raw image body
func (s *Server) UploadAvatarHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		data, err := s.readAvatarUpload(w, r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := s.accounts.SetAvatarUser(r.Context(), user, data); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) DeleteAvatarHandler() http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, user *users.User) {
		if err := s.accounts.DeleteAvatar(r.Context(), user); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) AvatarHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.accounts.Avatar(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", avatars.ContentType)
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// withUser hands the user stored by RequireAuth to h
func (s *Server) withUser(h func(http.ResponseWriter, *http.Request, *users.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeServiceError(w, r, apperrors.ErrUnauthenticated)
			return
		}
		h(w, r, user)
	}
}

func (s *Server) readAvatarUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	maxBytes := s.config.Avatar.MaxBytes
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, avatarTooLarge(maxBytes)
			}
			return nil, apperrors.NewValidationError("avatar", "please upload an image")
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("avatar")
		if err != nil {
			return nil, apperrors.NewValidationError("avatar", "please upload an image")
		}
		defer file.Close()
		return readLimited(file, maxBytes)
	case strings.HasPrefix(mediaType, "image/"):
		return readLimited(r.Body, maxBytes)
	default:
		return nil, apperrors.NewValidationError("avatar", "please upload an image")
	}
}

// readLimited reads at most maxBytes+1 bytes so oversize uploads are still
// reported as too large by avatars.Process
func readLimited(src io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "[Server.readLimited] ReadAll")
	}
	return data, nil
}

func avatarTooLarge(maxBytes int64) error {
	return apperrors.NewValidationError("avatar", fmt.Sprintf("file too large, the limit is %d bytes", maxBytes))
}
