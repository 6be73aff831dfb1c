/*
Package req provides helpers for HTTP request parsing and data binding.

It encapsulates strict JSON decoding and multipart form setup so handlers
receive well-formed input or a typed error they can pass straight to the
response layer.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"havenchat/internal/pkg/errs"
)

const (
	// MaxFormMemory is the maximum amount of memory ParseMultipartForm keeps
	// for non-file fields; larger file parts spill to temporary files.
	MaxFormMemory int64 = 32 << 20 // 32 MB

	// MaxRequestFileSize caps the whole multipart request body, enforced via
	// http.MaxBytesReader.
	MaxRequestFileSize int64 = 10 << 20 // 10 MB
)

// BindJSON binds the JSON request body to dst, rejecting unknown fields and
// trailing content.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart caps the request body size and parses the multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
