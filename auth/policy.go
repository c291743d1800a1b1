package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/config"
)

// bcryptMaxBytes is the longest input bcrypt accepts.
const bcryptMaxBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// CredentialPolicy validates usernames and passwords at registration.
// Lengths come from configuration; the username alphabet is fixed.
type CredentialPolicy struct {
	cfg      config.PolicyConfig
	validate *validator.Validate
}

// NewCredentialPolicy builds a policy from configuration.
func NewCredentialPolicy(cfg config.PolicyConfig) *CredentialPolicy {
	v := validator.New(validator.WithRequiredStructEnabled())
	// RegisterValidation only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &CredentialPolicy{cfg: cfg, validate: v}
}

// Check returns a ValidationError describing the first rule that is broken.
func (p *CredentialPolicy) Check(username, password string) error {
	usernameRules := fmt.Sprintf("required,min=%d,max=%d,username", p.cfg.UsernameMinLen, p.cfg.UsernameMaxLen)
	if err := p.validate.Var(username, usernameRules); err != nil {
		return apperror.NewValidationError(p.describe("username", err), nil)
	}

	passwordRules := fmt.Sprintf("required,min=%d,max=%d", p.cfg.PasswordMinLen, p.cfg.PasswordMaxLen)
	if err := p.validate.Var(password, passwordRules); err != nil {
		return apperror.NewValidationError(p.describe("password", err), nil)
	}
	if len(password) > bcryptMaxBytes {
		return apperror.NewValidationError(fmt.Sprintf("password must not exceed %d bytes", bcryptMaxBytes), nil)
	}
	return nil
}

func (p *CredentialPolicy) describe(field string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return field + " is invalid"
	}

	switch fe := verrs[0]; fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return "username may only contain letters, digits, '_', '.' and '-'"
	default:
		return field + " is invalid"
	}
}
