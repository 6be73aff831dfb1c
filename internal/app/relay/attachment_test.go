package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"havenchat/internal/pkg/errs"
)

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1))
	assert.Nil(t, ValidateFileSize(MaxAttachmentSize))

	customErr := ValidateFileSize(0)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidParams, customErr.Code)

	customErr = ValidateFileSize(MaxAttachmentSize + 1)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrFileSizeTooLarge, customErr.Code)
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("photo.jpg", "image/jpeg"))
	assert.Nil(t, ValidateFileType("photo.JPEG", "IMAGE/JPEG"))
	assert.Nil(t, ValidateFileType("sticker.webp", "image/webp"))

	assert.NotNil(t, ValidateFileType("doc.pdf", "application/pdf"), "non-image types are rejected")
	assert.NotNil(t, ValidateFileType("photo", "image/jpeg"), "missing extension is rejected")
	assert.NotNil(t, ValidateFileType("photo.png", "image/jpeg"), "extension and MIME type must agree")
}

func TestValidateAttachments(t *testing.T) {
	valid := Attachment{
		Key:      "sess-1/abc.jpg",
		Name:     "photo.jpg",
		MimeType: "image/jpeg",
		Size:     1024,
	}

	assert.Nil(t, ValidateAttachments("sess-1", []Attachment{valid}))

	customErr := ValidateAttachments("sess-1", nil)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAttachmentCountInvalid, customErr.Code)

	tooMany := make([]Attachment, MaxAttachmentsCount+1)
	for i := range tooMany {
		tooMany[i] = valid
	}
	customErr = ValidateAttachments("sess-1", tooMany)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAttachmentCountInvalid, customErr.Code)

	foreign := valid
	foreign.Key = "sess-2/abc.jpg"
	customErr = ValidateAttachments("sess-1", []Attachment{foreign})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAttachmentKeyInvalid, customErr.Code, "keys outside the session namespace are rejected")

	customErr = ValidateAttachments("", []Attachment{valid})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAttachmentKeyInvalid, customErr.Code, "no session means no valid namespace")
}
