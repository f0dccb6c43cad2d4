package service

import "errors"

// Kind classifies a service failure. The HTTP layer maps kinds to status
// codes; nothing below it knows about HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindUnauthenticated
	KindRefreshInvalid
	KindPrincipalNotFound
	KindInvalidOrExpiredResetToken
	KindEmailTaken
	KindValidation
	KindDeliveryFailed
)

var kindNames = map[Kind]string{
	KindInternal:                   "internal",
	KindInvalidCredentials:         "invalid_credentials",
	KindUnauthenticated:            "unauthenticated",
	KindRefreshInvalid:             "refresh_invalid",
	KindPrincipalNotFound:          "principal_not_found",
	KindInvalidOrExpiredResetToken: "invalid_or_expired_reset_token",
	KindEmailTaken:                 "email_taken",
	KindValidation:                 "validation",
	KindDeliveryFailed:             "delivery_failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a classified failure. Key names the message in the translation
// catalog; Err is the optional cause and is never shown to clients.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrRefreshInvalid)
// holds whatever message key the failure carries.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials         = &Error{Kind: KindInvalidCredentials, Key: "auth.invalidCredentials"}
	ErrUnauthenticated            = &Error{Kind: KindUnauthenticated, Key: "auth.unauthenticated"}
	ErrRefreshInvalid             = &Error{Kind: KindRefreshInvalid, Key: "auth.tokenInvalid"}
	ErrPrincipalNotFound          = &Error{Kind: KindPrincipalNotFound, Key: "auth.userNotFound"}
	ErrInvalidOrExpiredResetToken = &Error{Kind: KindInvalidOrExpiredResetToken, Key: "auth.invalidOrExpiredToken"}
	ErrEmailTaken                 = &Error{Kind: KindEmailTaken, Key: "auth.emailTaken"}
	ErrDeliveryFailed             = &Error{Kind: KindDeliveryFailed, Key: "auth.deliveryFailed"}
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// KeyOf returns the message key of err, falling back to the generic
// internal error message.
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Key != "" {
		return e.Key
	}
	return "common.internalError"
}
