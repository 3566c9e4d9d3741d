package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// UploadHandler implements the two-step attachment flow: the client first
// requests an upload target, then transfers bytes to it and receives a
// storage id to attach to the message it creates afterwards.
type UploadHandler struct {
	uploadDir string
	log       *zap.Logger
}

type UploadTargetResponse struct {
	URL string `json:"url"`
}

type UploadResultResponse struct {
	StorageID string `json:"storage_id"`
}

func NewUploadHandler(uploadDir string, log *zap.Logger) *UploadHandler {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		panic(fmt.Sprintf("Failed to create upload directory: %v", err))
	}
	return &UploadHandler{uploadDir: uploadDir, log: log}
}

// CreateTarget issues a one-use upload URL.
func (h *UploadHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	randBytes := make([]byte, 16)
	rand.Read(randBytes)
	id := hex.EncodeToString(randBytes)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadTargetResponse{URL: "/api/uploads/" + id})
}

// Put receives the bytes for a previously issued target and returns the
// storage id.
func (h *UploadHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := filepath.Base(r.PathValue("id"))
	if id == "" || id == "." {
		http.Error(w, "Upload ID required", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !isAllowedType(contentType) {
		http.Error(w, "File type not allowed. Supported: images, GIFs", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	dest := filepath.Join(h.uploadDir, id+getExtensionFromMime(contentType))
	if err := os.WriteFile(dest, data, 0644); err != nil {
		h.log.Error("save upload failed", zap.Error(err))
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResultResponse{StorageID: id})
}

// Serve streams a stored attachment.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id := filepath.Base(r.PathValue("id"))

	matches, _ := filepath.Glob(filepath.Join(h.uploadDir, id+".*"))
	if len(matches) == 0 {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	path := matches[0]
	w.Header().Set("Content-Type", getMimeFromExtension(filepath.Ext(path)))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, path)
}

func isAllowedType(contentType string) bool {
	allowed := map[string]bool{
		"image/jpeg":    true,
		"image/png":     true,
		"image/gif":     true,
		"image/webp":    true,
		"image/svg+xml": true,
	}
	return allowed[contentType]
}

func getExtensionFromMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".bin"
	}
}

func getMimeFromExtension(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
