package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Form data is missing required fields
	ValidationFailed ErrorCode = 40002

	// Action is not Approve, Reject or Return
	InvalidAction ErrorCode = 40003

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	ResourceNotFound ErrorCode = 40401

	// Request was changed by someone else, reload and retry
	Conflict ErrorCode = 40901

	// Request is no longer Pending
	NotActionable ErrorCode = 40902

	// Template definition is malformed
	InvalidTemplate  ErrorCode = 42201
	InvalidStep      ErrorCode = 42202
	InvalidCondition ErrorCode = 42203

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
