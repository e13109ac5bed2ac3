package http

import (
	"net/http"

	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
)

// ErrorResponse is the JSON error envelope every endpoint uses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// apiError couples an error envelope with its HTTP status code.
type apiError struct {
	Status      int
	Code        string
	Description string
}

func (e apiError) WriteError(w http.ResponseWriter) {
	if e.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	httpx.WriteJSON(w, e.Status, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	errInvalidRequest = apiError{
		http.StatusBadRequest, "invalid_request",
		"The request is missing a required parameter or is otherwise malformed.",
	}
	errInvalidContentType = apiError{
		http.StatusBadRequest, "invalid_request",
		"Content-Type must be application/x-www-form-urlencoded.",
	}
	errInvalidFormBody = apiError{
		http.StatusBadRequest, "invalid_request",
		"The request body could not be parsed as a form.",
	}

	// One shape for every authentication failure so responses don't reveal
	// whether the email exists, the password was wrong or the account is
	// disabled.
	errUnauthorized = apiError{
		http.StatusUnauthorized, "unauthorized",
		"Invalid email or password.",
	}

	errVerificationPending = apiError{
		http.StatusConflict, "verification_pending",
		"A verification email was sent recently. Check your inbox.",
	}
	errVerificationSent = apiError{
		http.StatusConflict, "verification_pending",
		"A new verification email has been sent. Check your inbox.",
	}

	errForbidden = apiError{
		http.StatusForbidden, "forbidden",
		"You do not have access to this resource.",
	}
	errNotFound = apiError{
		http.StatusNotFound, "not_found",
		"The requested resource does not exist.",
	}
	errConflict = apiError{
		http.StatusConflict, "conflict",
		"A resource with this path already exists.",
	}

	errInvalidEmail = apiError{
		http.StatusBadRequest, "invalid_email",
		"The email address is not valid.",
	}
	errWeakPassword = apiError{
		http.StatusBadRequest, "weak_password",
		"Passwords need at least 8 characters including a letter and a digit.",
	}
	errEmailTaken = apiError{
		http.StatusConflict, "email_taken",
		"An account with this email already exists.",
	}
	errInvalidLink = apiError{
		http.StatusBadRequest, "invalid_link",
		"The verification link is invalid or has expired.",
	}

	errServerError = apiError{
		http.StatusInternalServerError, "server_error",
		"Something went wrong. Try again later.",
	}
)
