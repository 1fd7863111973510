package api

import (
	"booknet/internal/domain" // Validation error type
	"encoding/json"           // Body decoding
	"errors"                  // Error inspection
	"io"                      // Empty bodies
	"reflect"                 // Struct field tags
	"strings"                 // Tag parsing
	"sync"                    // One-time registration
	"unicode"                 // Password character classes

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Struct validation
)

const strongPasswordMessage = "Password must include at least 8 characters, 1 lowercase, 1 uppercase, 1 number, and 1 symbol"

// fieldMessages maps "<Struct>.<Field>.<tag>" to the message shown to the client
var fieldMessages = map[string]string{
	"RegisterRequest.FirstName.required":              "Please Enter First Name",
	"RegisterRequest.LastName.required":               "Please Enter Last Name",
	"RegisterRequest.Username.required":               "Please Enter Correct Username",
	"RegisterRequest.Email.required":                  "Please Enter  Email",
	"RegisterRequest.Email.email":                     "Please Enter Correct Email",
	"RegisterRequest.Password.required":               "please enter password",
	"RegisterRequest.Password.strongpassword":         strongPasswordMessage,
	"RegisterRequest.ConfirmPassword.required":        "Please confirm your password",
	"RegisterRequest.ConfirmPassword.eqfield":         "Passwords do not match",
	"LoginRequest.EmailOrUsername.required":           "Please Enter Username or Email",
	"LoginRequest.Password.required":                  "Please Enter Password",
	"ForgotPasswordRequest.Email.required":            "Please enter a valid email address.",
	"ForgotPasswordRequest.Email.email":               "Please enter a valid email address.",
	"ResetPasswordRequest.NewPassword.required":       "please enter New password",
	"ResetPasswordRequest.NewPassword.strongpassword": strongPasswordMessage,
	"ResetPasswordRequest.ConfirmPassword.required":   "Please confirm your password",
	"ResetPasswordRequest.ConfirmPassword.eqfield":    "Passwords do not match",
	"ProfileRequest.DOB.datetime":                     "Please Enter a valid date of birth (YYYY-MM-DD)",
	"CartItemRequest.ProductID.required":              "Please Enter Product ID",
	"CartItemRequest.Quantity.required":               "Quantity must be a positive number",
	"CartItemRequest.Quantity.gt":                     "Quantity must be a positive number",
}

var registerOnce sync.Once

// RegisterValidators installs the custom rules and JSON field naming on gin's validator
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
	})
}

// IsStrongPassword reports whether p has at least 8 characters including a lowercase
// letter, an uppercase letter, a digit and a symbol
func IsStrongPassword(p string) bool {
	var lower, upper, digit, symbol bool
	count := 0
	for _, r := range p {
		count++
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return count >= 8 && lower && upper && digit && symbol
}

// trimmer is implemented by requests whose text fields are trimmed before validation
type trimmer interface {
	trim()
}

// bindJSON decodes the body into req, trims it, then runs the binding rules.
// An empty body is validated as an empty object.
func bindJSON(c *gin.Context, req any) error {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return bindError(err)
	}
	if t, ok := req.(trimmer); ok {
		t.trim()
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return bindError(err)
	}
	return nil
}

// bindError converts a binding failure into a ValidationError listing every field
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Fields: []domain.FieldViolation{{Field: "body", Message: "Invalid request body"}}}
	}
	fields := make([]domain.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value for " + fe.Field()
		}
		fields = append(fields, domain.FieldViolation{Field: fe.Field(), Message: msg})
	}
	return &domain.ValidationError{Fields: fields}
}
