package identity

import (
	"errors"
	"fmt"
)

// Code is a provider-defined error code for a failed identity
// operation. The set below covers the codes the gateway maps to
// user-facing messages; anything else falls through to a generic one.
type Code string

const (
	CodeWrongPassword     Code = "auth/wrong-password"
	CodeUserNotFound      Code = "auth/user-not-found"
	CodeInvalidEmail      Code = "auth/invalid-email"
	CodeUserDisabled      Code = "auth/user-disabled"
	CodeTooManyRequests   Code = "auth/too-many-requests"
	CodeEmailInUse        Code = "auth/email-already-in-use"
	CodeWeakPassword      Code = "auth/weak-password"
	CodeInvalidCredential Code = "auth/invalid-credential"
	CodeFlowCancelled     Code = "auth/flow-cancelled"
	CodePopupBlocked      Code = "auth/popup-blocked"
)

// Error is a failed identity-provider operation carrying the
// provider's code alongside the underlying cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a provider code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the provider code from err, or "" when err carries
// no identity error.
func CodeOf(err error) Code {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

var messages = map[Code]string{
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeUserNotFound:      "No account found with this email address.",
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeUserDisabled:      "This account has been disabled.",
	CodeTooManyRequests:   "Too many failed attempts. Please try again later.",
	CodeEmailInUse:        "This email is already registered.",
	CodeWeakPassword:      "Password is too weak.",
	CodeInvalidCredential: "Invalid credentials. Please try again.",
	CodeFlowCancelled:     "Sign-in cancelled.",
	CodePopupBlocked:      "Sign-in window blocked. Please allow popups and retry.",
}

const genericMessage = "Sign-in failed. Please try again."

// UserMessage maps err to the message shown to the user. Unknown
// codes (and nil-code errors) get the generic failure message.
func UserMessage(err error) string {
	if msg, ok := messages[CodeOf(err)]; ok {
		return msg
	}
	return genericMessage
}
