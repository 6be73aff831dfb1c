package relay

import (
	"path/filepath"
	"strings"
	"time"

	"havenchat/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// MaxAttachmentsCount is the maximum number of attachments per message.
	MaxAttachmentsCount = 3

	// PresignedURLDuration is how long a presigned upload/download URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes is the set of permitted MIME types for attachments.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their expected MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Attachment describes a file shared inside a chat session. The object lives
// in the storage bucket under a key namespaced by the session id.
type Attachment struct {
	Key      string `json:"fileKey"`
	Name     string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"fileSize"`
}

// ValidateFileSize checks that the file size is positive and within limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that the file name extension and MIME type agree
// and both are allowed.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrInvalidParams)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}

// ValidateAttachments checks the count, the session-scoped key prefix, and
// the type of every attachment in a message.
func ValidateAttachments(sessionID string, attachments []Attachment) *errs.CustomError {
	if count := len(attachments); count == 0 || count > MaxAttachmentsCount {
		return errs.NewError(errs.ErrAttachmentCountInvalid)
	}

	expectedKeyPrefix := sessionID + "/"

	for _, a := range attachments {
		if sessionID == "" || !strings.HasPrefix(a.Key, expectedKeyPrefix) {
			return errs.NewError(errs.ErrAttachmentKeyInvalid)
		}

		if err := ValidateFileType(a.Name, a.MimeType); err != nil {
			return err
		}

		if err := ValidateFileSize(a.Size); err != nil {
			return err
		}
	}

	return nil
}
