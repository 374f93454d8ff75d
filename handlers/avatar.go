package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camden-git/namerecall/media"
	"github.com/camden-git/namerecall/workers"
)

const avatarFormField = "avatar"

// AvatarHandler turns an uploaded photo into an avatar data URI for one open
// form (the slot). A newer upload for the same slot supersedes an older one
// still being read; the older request then gets 409.
type AvatarHandler struct {
	Reader         *workers.AvatarReader
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

func (ah *AvatarHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if slot == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Missing slot")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ah.MaxUploadBytes)
	if err := r.ParseMultipartForm(ah.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteAPIError(w, http.StatusRequestEntityTooLarge, CodeUploadTooLarge, "Avatar upload too large")
			return
		}
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Missing form file: "+avatarFormField)
		return
	}
	defer file.Close()

	// Names without an extension ("blob" from a canvas) are left to content sniffing.
	if filepath.Ext(header.Filename) != "" && !media.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusUnsupportedMediaType, CodeUnsupportedImage, "Unsupported image file: "+header.Filename)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Failed to read upload")
		return
	}

	res, err := workers.Await(r.Context(), ah.Reader.Read(slot, data))
	if err != nil {
		if r.Context().Err() != nil {
			ah.Logger.Debug("client went away during avatar read", zap.String("slot", slot))
			return
		}
		writeError(w, ah.Logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, avatarResponse{Avatar: res.DataURI})
}
