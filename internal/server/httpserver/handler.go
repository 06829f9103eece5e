package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
)

// maxCredentialsBody caps the JSON body of register and login.
const maxCredentialsBody = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type uploadResponse struct {
	Response     string `json:"response"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	StrippedPath string `json:"stripped_path"`
}

type fileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Server": "ok"})
}

// decodeCredentials reads and validates the register/login body. It writes
// the error response itself and reports whether the handler may go on.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if msg := validationMessage(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	return &req, true
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	pair, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusUnauthorized, "Invalid password")
		default:
			writeServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// uploadFile streams the multipart field "file" straight into storage
// without buffering the body.
func (s *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "field 'file' is required")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed multipart body")
			return
		}

		if part.FormName() != common.UploadFieldName {
			_ = part.Close()
			continue
		}

		stored, err := s.files.Upload(r.Context(), userID, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{
			Response:     "ok",
			Path:         stored.Name,
			Size:         stored.Size,
			StrippedPath: services.DisplayPath(stored.Name),
		})
		return
	}
}

func (s *HTTPServer) getFile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	q := r.URL.Query()
	path := q.Get("path")
	if strings.TrimSpace(path) == "" {
		writeError(w, http.StatusBadRequest, "Path should not be None or empty.")
		return
	}
	mode := q.Get("mode")
	if mode == "" {
		mode = common.FetchModeBase64
	}

	f, err := s.files.Get(r.Context(), userID, path, mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if f.Reader == nil {
		writeJSON(w, http.StatusOK, fileResponse{Path: f.Path, Content: f.Content})
		return
	}
	defer f.Reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	http.ServeContent(w, r, f.Name, f.ModTime, f.Reader)
}
