package errors

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotLoggedIn is returned when a protected route is hit without a credential.
	ErrNotLoggedIn = errors.New("you are not logged in, please log in to get access")
	// ErrInvalidToken is returned when a session credential is malformed or expired.
	ErrInvalidToken = errors.New("invalid or expired token, please log in again")
	// ErrStaleToken is returned when the credential predates a password change.
	ErrStaleToken = errors.New("user recently changed password, please log in again")
	// ErrInvalidCredentials is returned on login failure. Identical for unknown
	// email and wrong password to prevent account enumeration.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrWrongPassword is returned when the current password re-check fails.
	ErrWrongPassword = errors.New("your current password is incorrect")
	// ErrForbidden is returned when the user's role is not permitted.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrUserNotFound is returned when no matching user exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrTourNotFound is returned when no matching tour exists.
	ErrTourNotFound = errors.New("tour not found")
	// ErrReviewNotFound is returned when no matching review exists.
	ErrReviewNotFound = errors.New("review not found")
	// ErrInvalidResetToken covers both unknown and expired reset tokens. A single
	// error case so clients cannot tell whether a match existed but expired.
	ErrInvalidResetToken = errors.New("token is invalid or has expired")
	// ErrEmailDelivery is returned when an outbound email could not be sent.
	ErrEmailDelivery = errors.New("there was an error sending the email, try again later")
	// ErrPasswordRoute is returned when a profile update carries password fields.
	ErrPasswordRoute = errors.New("this route is not for password updates, please use /updatePassword")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateReview is returned when a user reviews the same tour twice.
	ErrDuplicateReview = errors.New("you have already reviewed this tour")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code. Operational errors are
// safe to surface verbatim; anything else is reduced to a generic message
// before it reaches the client.
type HTTPError struct {
	StatusCode  int
	Message     string
	Code        string
	Operational bool
	Fields      []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new operational HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode:  statusCode,
		Message:     message,
		Code:        code,
		Operational: true,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	status := "fail"
	if e.StatusCode >= http.StatusInternalServerError {
		status = "error"
	}
	return ErrorResponse{
		Status:  status,
		Message: e.Message,
		Code:    e.Code,
		Fields:  e.Fields,
	}
}

const mysqlDuplicateEntry = 1062

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrNotLoggedIn):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrStaleToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrWrongPassword):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTourNotFound), errors.Is(err, ErrReviewNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrInvalidResetToken):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, ErrPasswordRoute):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicateReview):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, ErrEmailDelivery):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "DELIVERY_FAILURE")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewHTTPError(http.StatusNotFound, "record not found", "NOT_FOUND")
	default:
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return NewHTTPError(http.StatusBadRequest, "duplicate value, please use another one", "BAD_REQUEST")
		}
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return fromValidationErrors(validationErrs)
		}
		// unclassified: never leak internals to the client
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "something went wrong",
			Code:       "INTERNAL_ERROR",
		}
	}
}

// fromValidationErrors flattens validator.v10 errors to a field error list.
func fromValidationErrors(errs validator.ValidationErrors) *HTTPError {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fieldMessage(fe))
	}
	return &HTTPError{
		StatusCode:  http.StatusBadRequest,
		Message:     "invalid input data",
		Code:        "BAD_REQUEST",
		Operational: true,
		Fields:      fields,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "eqfield":
		return fe.Field() + " must match " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
