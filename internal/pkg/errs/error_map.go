/*
Package errs provides custom error types and application-level error code
constants.

This file maps error codes to their CustomError templates, standardizing HTTP
responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Unsupported request format.", Status: http.StatusBadRequest},

	// 2xxx: Queue and Session Business Logic Errors
	ErrNoLiveConnection:       {Code: ErrNoLiveConnection, Message: "Connect to chat before joining the queue.", Status: http.StatusConflict},
	ErrAlreadyInSession:       {Code: ErrAlreadyInSession, Message: "You are already in a chat.", Status: http.StatusConflict},
	ErrNoActiveSession:        {Code: ErrNoActiveSession, Message: "No active chat session.", Status: http.StatusConflict},
	ErrMatchVoided:            {Code: ErrMatchVoided, Message: "Your match could not be connected. Please search again."},
	ErrMessageContentTooLong:  {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrMessageContentEmpty:    {Code: ErrMessageContentEmpty, Message: "Message is empty."},
	ErrAttachmentCountInvalid: {Code: ErrAttachmentCountInvalid, Message: "Invalid number of attachments."},
	ErrAttachmentKeyInvalid:   {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},
	ErrFileSizeTooLarge:       {Code: ErrFileSizeTooLarge, Message: "File is too large."},

	// 3xxx: Identity and Security Errors
	ErrUnauthorized:  {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionKicked: {Code: ErrSessionKicked, Message: "You connected from another tab or device."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
