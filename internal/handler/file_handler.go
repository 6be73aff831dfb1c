package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"havenchat/internal/app/relay"
	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/req"
	"havenchat/internal/pkg/resp"
)

// PresignUploadInput is the JSON input for generating an upload URL.
type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// attachmentKey builds the session-scoped object key for a fresh attachment.
func attachmentKey(sessionID, fileName string) string {
	fileExt := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", sessionID, uuid.New().String(), fileExt)
}

// HandlePresignUpload generates a time-limited pre-signed URL for uploading
// an attachment, scoped to the caller's active chat session. Users without an
// active session cannot stage files.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		sessionID, ok := deps.Relay.SessionFor(userID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoActiveSession))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := relay.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := relay.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileKey := attachmentKey(sessionID, input.FileName)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			relay.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignDownload redirects to a time-limited pre-signed URL for an
// attachment key inside the caller's active chat session.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		sessionID, ok := deps.Relay.SessionFor(userID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoActiveSession))
			return
		}

		expectedKeyPrefix := sessionID + "/"
		if !strings.HasPrefix(fileKey, expectedKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		url, err := deps.Storage.PresignDownload(
			r.Context(),
			fileKey,
			relay.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// HandleDirectUpload accepts a multipart upload and streams it to storage
// server-side, for clients that cannot PUT to a pre-signed URL. The stored
// key lands in the same session-scoped namespace as presigned uploads.
func HandleDirectUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		sessionID, ok := deps.Relay.SessionFor(userID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoActiveSession))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")

		if customErr := relay.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := relay.ValidateFileType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey := attachmentKey(sessionID, header.Filename)

		if err := deps.Storage.Upload(r.Context(), fileKey, mimeType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		logx.Info("Attachment uploaded server-side", "session_id", sessionID, "file_key", fileKey)

		data := map[string]any{
			"fileKey":  fileKey,
			"fileName": header.Filename,
		}
		resp.RespondSuccess(w, r, data)
	}
}
