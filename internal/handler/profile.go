package handler

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/imaging"
	"github.com/msomdec/cinelist/internal/service"
)

// multipartOverhead is slack for form boundaries and headers on top of the image itself.
const multipartOverhead = 1 << 20

// ProfileHandler handles profile picture requests.
type ProfileHandler struct {
	profile *service.ProfileService
	uploads *service.TokenBucket
}

// NewProfileHandler creates a new ProfileHandler. uploads may be nil to disable
// per-user upload limiting.
func NewProfileHandler(profile *service.ProfileService, uploads *service.TokenBucket) *ProfileHandler {
	return &ProfileHandler{profile: profile, uploads: uploads}
}

// HandleUpload normalizes an uploaded image and stores it on the profile.
// POST /api/profile/picture (multipart, field "image")
// Response: {"success":true,"dataUri":"...","width":..,"height":..,"sizeKB":..}
func (h *ProfileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if h.uploads != nil && !h.uploads.Allow(strconv.FormatInt(user.ID, 10)) {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, PictureResultDTO{Error: "Too many uploads. Please wait and try again."})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.profile.Limits().MaxSourceSize+multipartOverhead)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			res := h.profile.ValidateCandidate(imaging.Candidate{FileSizeBytes: tooLarge.Limit})
			writeJSON(w, http.StatusUnprocessableEntity, PictureResultDTO{Error: res.Error})
			return
		}
		writeJSON(w, http.StatusBadRequest, PictureResultDTO{Error: "An image file is required."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read uploaded image", "error", err)
		writeJSON(w, http.StatusBadRequest, PictureResultDTO{Error: "Could not read the uploaded file."})
		return
	}

	img, err := h.profile.UploadPicture(r.Context(), user.ID, sniffCandidate(data), imaging.BytesSource(data))
	if err != nil {
		writePictureError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPictureResultDTO(img))
}

// HandleValidate checks picker metadata before the client uploads anything.
// POST /api/profile/picture/validate
// Request:  {"mimeType":"...","fileSizeBytes":..,"pixelWidth":..,"pixelHeight":..}
// Response: {"isValid":bool,"error":"..."}
func (h *ProfileHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var c imaging.Candidate
	if err := readJSON(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	writeJSON(w, http.StatusOK, h.profile.ValidateCandidate(c))
}

// HandleGet returns the stored picture and its size.
// GET /api/profile/picture
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	pic, err := h.profile.GetPicture(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No profile picture.")
			return
		}
		slog.Error("get profile picture", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, toPictureDTO(pic))
}

// HandleReoptimize re-encodes the stored picture if it exceeds the size budget.
// POST /api/profile/picture/reoptimize
func (h *ProfileHandler) HandleReoptimize(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	img, changed, err := h.profile.ReoptimizePicture(r.Context(), user.ID)
	if err != nil {
		writePictureError(w, err)
		return
	}

	res := toPictureResultDTO(img)
	res.Changed = &changed
	writeJSON(w, http.StatusOK, res)
}

// HandleDelete removes the stored picture.
// DELETE /api/profile/picture
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.profile.RemovePicture(r.Context(), user.ID); err != nil {
		slog.Error("remove profile picture", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAvatar serves a user's picture as image bytes.
// GET /api/users/{id}/avatar
func (h *ProfileHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	data, mimeType, err := h.profile.Avatar(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("serve avatar", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// sniffCandidate derives picker metadata from the uploaded bytes themselves.
func sniffCandidate(data []byte) imaging.Candidate {
	c := imaging.Candidate{
		MimeType:      mimetype.Detect(data).String(),
		FileSizeBytes: int64(len(data)),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		c.PixelWidth, c.PixelHeight = cfg.Width, cfg.Height
	}
	return c
}

// writePictureError answers a failed picture operation with {"success":false,"error":...}.
func writePictureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, PictureResultDTO{Error: "No profile picture."})
	case errors.Is(err, imaging.ErrValidation),
		errors.Is(err, imaging.ErrTooComplex),
		errors.Is(err, imaging.ErrTransformFailed),
		errors.Is(err, imaging.ErrInvalidDataURI):
		writeJSON(w, http.StatusUnprocessableEntity, PictureResultDTO{Error: imaging.Message(err)})
	default:
		slog.Error("profile picture", "error", err)
		writeJSON(w, http.StatusInternalServerError, PictureResultDTO{Error: "An unexpected error occurred."})
	}
}
