package handler

const (
	errInternalServer     = "Internal server error"
	errInvalidCredentials = "Invalid email or password"
	errDuplicateEmail     = "Email is already registered"
	errEmptyText          = "Todo text must not be empty"
)
