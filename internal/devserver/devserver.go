// Package devserver is a stand-in for the real corrosion-detection service.
// It implements the exact wire contract the client depends on — /upload,
// /detect, /comment and /history — with an in-memory index, files on disk
// and a canned corrosion percentage, so the client can be exercised without
// a detection model or database.
package devserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/manash/corroscan/internal/security"
	"github.com/manash/corroscan/pkg/models"
)

const maxUploadBytes = 16 << 20 // matches the real service's 16MB cap

// cannedCorrosion is returned for every detection, the same placeholder
// the real service falls back to without a model.
const cannedCorrosion = 15.7

type imageRecord struct {
	ID           string
	Filename     string
	OriginalURL  string
	ProcessedURL string
	UploadedAt   time.Time
}

type Server struct {
	dataDir string
	logger  *slog.Logger

	mu       sync.Mutex
	images   map[string]*imageRecord
	comments map[string][]string
}

func New(dataDir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, sub := range []string{"uploads", "processed"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &Server{
		dataDir:  dataDir,
		logger:   logger,
		images:   make(map[string]*imageRecord),
		comments: make(map[string][]string),
	}, nil
}

// Router builds the HTTP surface. It is mounted both by the stub command
// and by tests via httptest.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	r.HandleFunc("/comment", s.handleComment).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(filepath.Join(s.dataDir, "uploads")))))
	r.PathPrefix("/processed/").Handler(http.StripPrefix("/processed/",
		http.FileServer(http.Dir(filepath.Join(s.dataDir, "processed")))))
	return r
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	filename := uuid.New().String() + "_" + security.SanitizeFilename(header.Filename)
	dst, err := os.Create(filepath.Join(s.dataDir, "uploads", filename))
	if err != nil {
		s.logger.Error("saving upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		s.logger.Error("writing upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	rec := &imageRecord{
		ID:          uuid.New().String(),
		Filename:    filename,
		OriginalURL: "/uploads/" + filename,
		UploadedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.images[rec.ID] = rec
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UploadResult{
		ImageID:     rec.ID,
		Filename:    rec.Filename,
		OriginalURL: rec.OriginalURL,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageID  string `json:"image_id"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageID == "" || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	s.mu.Lock()
	rec, ok := s.images[req.ImageID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	// No model here: the "processed" image is a copy of the original.
	processedName := "processed_" + rec.Filename
	src := filepath.Join(s.dataDir, "uploads", rec.Filename)
	dst := filepath.Join(s.dataDir, "processed", processedName)
	if err := copyFile(src, dst); err != nil {
		s.logger.Error("processing image", "image_id", req.ImageID, "error", err)
		writeError(w, http.StatusInternalServerError, "Detection failed")
		return
	}

	s.mu.Lock()
	rec.ProcessedURL = "/processed/" + processedName
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.DetectionResult{
		ProcessedURL:        "/processed/" + processedName,
		CorrosionPercentage: cannedCorrosion,
		DetectionData: &models.DetectionData{
			Boxes:               []models.Box{},
			CorrosionPercentage: cannedCorrosion,
		},
	})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req models.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageID == "" || req.Comment == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	s.mu.Lock()
	s.comments[req.ImageID] = append(s.comments[req.ImageID], req.Comment)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.CommentResult{
		CommentID: uuid.New().String(),
		Message:   "Comment added successfully",
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := make([]*imageRecord, 0, len(s.images))
	for _, rec := range s.images {
		records = append(records, rec)
	}
	s.mu.Unlock()

	// Newest first, like the real service.
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})

	items := make([]models.HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.HistoryItem{
			ID:                rec.ID,
			Filename:          rec.Filename,
			OriginalImageURL:  rec.OriginalURL,
			ProcessedImageURL: rec.ProcessedURL,
			UploadedAt:        rec.UploadedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, items)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
