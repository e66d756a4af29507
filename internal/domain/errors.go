package domain

import "errors"

// Domain errors
var (
	// Auth errors
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("insufficient role")

	// Catalog errors
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product is inactive")
	ErrCategoryNotFound = errors.New("category not found")

	// Cart errors
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")

	// Checkout/order errors
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOptionSoldOut     = errors.New("selected option value is sold out")

	// Validation errors
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsAuthError checks if the error maps to HTTP 401
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsValidationError checks if the error maps to HTTP 400
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyCart)
}
