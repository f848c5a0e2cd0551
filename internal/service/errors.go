package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username must be unique")
	ErrUserNotFound       = errors.New("user not found")
	ErrBlogNotFound       = errors.New("blog not found")
	ErrAccessDenied       = errors.New("only the creator can delete a blog")
)

// ValidationError is a client-fixable problem with a single request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// keyed by struct namespace
var validationMessages = map[string]string{
	"RegisterRequest.Password": "Password is too short",
	"RegisterRequest.Username": "Username is too short",
	"CreateBlogRequest.Title":  "title is required",
	"CreateBlogRequest.URL":    "url is required",
	"CreateBlogRequest.Likes":  "likes must not be negative",
	"UpdateBlogRequest.Title":  "title must not be empty",
	"UpdateBlogRequest.URL":    "url must not be empty",
	"UpdateBlogRequest.Likes":  "likes must not be negative",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags and reports the first failing field,
// in declaration order.
func validateRequest(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fe := fieldErrs[0]
	msg, ok := validationMessages[fe.StructNamespace()]
	if !ok {
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}

	return &ValidationError{Field: fe.Field(), Message: msg}
}
