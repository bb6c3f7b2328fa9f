package errors

// Error codes returned to clients, formatted CATEGORY_DETAIL. The storefront
// maps these to user-facing copy.
const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthPasswordTooShort   = "AUTH_PASSWORD_TOO_SHORT"

	// authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// catalog
	ProductNotFound = "PRODUCT_NOT_FOUND"
	ProductInvalid  = "PRODUCT_INVALID"

	// cart
	CartSignInRequired = "CART_SIGN_IN_REQUIRED"
	CartNotSaved       = "CART_NOT_SAVED"

	// orders
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderEmptyCart         = "ORDER_EMPTY_CART"
	OrderInvalidTransition = "ORDER_INVALID_STATUS_TRANSITION"

	// uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// internal
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalDatabase    = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API_ERROR"
)
