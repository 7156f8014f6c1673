package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bucketsResponse struct {
	Buckets []string `json:"buckets"`
}

type filesResponse struct {
	Path    string                `json:"path"`
	Entries []storage.ObjectEntry `json:"entries"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Link     string `json:"link"` // key without the leading slash
	Size     uint64 `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleBuckets always answers 200; an unusable configuration shows up as an empty list.
func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListBuckets(r.Context())
	if err != nil {
		s.logger.Debug().Err(err).Msg("bucket listing degraded")
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, bucketsResponse{Buckets: names})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if _, err := storage.CleanPrefix(p); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	entries, err := s.store.ListObjects(r.Context(), p)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", p).Msg("object listing degraded")
	}
	if entries == nil {
		entries = []storage.ObjectEntry{}
	}
	s.writeJSON(w, http.StatusOK, filesResponse{Path: p, Entries: entries})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if !s.store.IsManagedURL(file) {
		s.writeError(w, http.StatusBadRequest, "not a managed file URL")
		return
	}

	link, err := s.store.DownloadURL(file)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link, http.StatusFound)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file size too large, maximum allowed size is %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	src, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer src.Close()

	name := storage.SanitizeFileName(header.Filename)
	if err := storage.ValidateUploadName(name); err != nil {
		s.writeError(w, http.StatusBadRequest, "file type not allowed, only safe file types are permitted")
		return
	}

	prefix, err := storage.CleanPrefix(r.FormValue("path"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	key := prefix + name

	tmpPath, err := s.spool(src)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to spool upload")
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(tmpPath)

	res, err := s.store.Upload(r.Context(), key, tmpPath)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("upload failed")
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info().Str("key", res.Key).Uint64("size", res.Size).Msg("file uploaded")
	s.writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "File uploaded successfully!",
		Filename: res.Name,
		Path:     res.Path,
		Link:     res.Key,
		Size:     res.Size,
	})
}

// spool copies the upload into a private temp file and returns its path.
func (s *Server) spool(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.tempDir, "s3compat-upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// writeStoreError maps storage errors onto status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		s.writeError(w, http.StatusServiceUnavailable, "storage is not configured")
	case storage.IsInvalidInput(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case storage.IsRemote(err), errors.Is(err, transport.ErrTransport):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
