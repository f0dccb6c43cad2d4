package handler

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field limits shared by the request validators.
const (
	passwordMinLen   = 6
	passwordMaxBytes = 72 // bcrypt ignores bytes past 72
	nameMaxLen       = 100
	emailMaxLen      = 255
)

// violation is a failed rule before translation.
type violation struct {
	Field string
	Key   string
	Args  map[string]string
}

// FieldError is one translated validation failure in a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type rules struct {
	errs []violation
}

func (r *rules) add(field, key string, args map[string]string) {
	if args == nil {
		args = map[string]string{}
	}
	args["field"] = field
	r.errs = append(r.errs, violation{Field: field, Key: key, Args: args})
}

// required reports whether v is non-blank, recording a violation otherwise.
func (r *rules) required(field, v string) bool {
	if strings.TrimSpace(v) == "" {
		r.add(field, "validation.required", nil)
		return false
	}
	return true
}

func (r *rules) email(field, v string) {
	if !r.required(field, v) {
		return
	}
	v = strings.TrimSpace(v)
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || len(v) > emailMaxLen {
		r.add(field, "validation.email", nil)
	}
}

// length checks min and max in characters.
func (r *rules) length(field, v string, min, max int) {
	n := utf8.RuneCountInString(v)
	if min > 0 && n < min {
		r.add(field, "validation.minLength", map[string]string{"min": strconv.Itoa(min)})
	}
	if max > 0 && n > max {
		r.add(field, "validation.maxLength", map[string]string{"max": strconv.Itoa(max)})
	}
}

// bytes caps the encoded size of v.
func (r *rules) bytes(field, v string, max int) {
	if len(v) > max {
		r.add(field, "validation.maxBytes", map[string]string{"max": strconv.Itoa(max)})
	}
}

func (r *rules) password(field, v string) {
	if !r.required(field, v) {
		return
	}
	r.length(field, v, passwordMinLen, 0)
	r.bytes(field, v, passwordMaxBytes)
}

func validateLogin(req loginReq) []violation {
	var r rules
	r.email("email", req.Email)
	r.required("password", req.Password)
	return r.errs
}

func validateRefresh(req refreshReq) []violation {
	var r rules
	r.required("refresh_token", req.RefreshToken)
	return r.errs
}

func validateRequestReset(req requestResetReq) []violation {
	var r rules
	r.email("email", req.Email)
	return r.errs
}

func validateResetPassword(req resetPasswordReq) []violation {
	var r rules
	r.required("token", req.Token)
	r.password("password", req.Password)
	return r.errs
}

func validateSignup(req signupReq) []violation {
	var r rules
	r.email("email", req.Email)
	if r.required("name", req.Name) {
		r.length("name", strings.TrimSpace(req.Name), 0, nameMaxLen)
	}
	r.password("password", req.Password)
	return r.errs
}
