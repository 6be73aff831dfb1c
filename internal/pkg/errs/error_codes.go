/*
Package errs provides custom error types and application-level error code
constants.

These codes identify specific business or system errors both inside the server
and in responses to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the size limit.
	ErrRequestEntityTooLarge = 1006

	// ErrFormParseFailed indicates that multipart form parsing failed.
	ErrFormParseFailed = 1007
)

// 2xxx: Queue and Session Business Logic Errors
const (
	// ErrNoLiveConnection indicates a queue operation for a user without a
	// registered real-time connection.
	ErrNoLiveConnection = 2101

	// ErrAlreadyInSession indicates a queue join while a chat session is active.
	ErrAlreadyInSession = 2102

	// ErrNoActiveSession indicates an operation that requires an active chat session.
	ErrNoActiveSession = 2103

	// ErrMatchVoided indicates that a pairing could not be realized for both
	// sides and was cancelled.
	ErrMatchVoided = 2104

	// ErrMessageContentTooLong indicates message content over the length limit.
	ErrMessageContentTooLong = 2201

	// ErrMessageContentEmpty indicates an empty chat message.
	ErrMessageContentEmpty = 2202

	// ErrAttachmentCountInvalid indicates an invalid number of attachments.
	ErrAttachmentCountInvalid = 2203

	// ErrAttachmentKeyInvalid indicates an attachment key outside the session namespace.
	ErrAttachmentKeyInvalid = 2204

	// ErrFileSizeTooLarge indicates an attachment over the size limit.
	ErrFileSizeTooLarge = 2205
)

// 3xxx: Identity and Security Errors
const (
	// ErrUnauthorized indicates a missing or unresolvable session credential.
	ErrUnauthorized = 3001

	// ErrSessionKicked indicates the connection was replaced by a newer one.
	ErrSessionKicked = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates a presign/storage backend failure.
	ErrFileStorageFailed = 5001
)
