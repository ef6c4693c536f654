package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MaxNameLength  = 50
	MaxEmailLength = 255
	MinPasswordLen = 6
	MaxPictureSize = 5 * 1024 * 1024

	MaxOrderPrice    = 99999.99
	MinOrderQuantity = 1
)

var validate = validator.New()

// FieldError is a single field-rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found in one pass. All rules
// are checked before reporting; callers get the full list at once.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Field + " " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// OrNil returns the collected errors as an error, or nil when empty.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateUserFields checks the rules that do not need the store.
// Uniqueness of email and authentication token is the repository's
// concern. The password is optional when requirePassword is false so a
// profile edit that leaves it blank keeps the current one.
func ValidateUserFields(name, email, password string, requirePassword bool) ValidationErrors {
	var errs ValidationErrors

	if name == "" {
		errs.Add("name", "can't be blank")
	} else if len(name) > MaxNameLength {
		errs.Add("name", fmt.Sprintf("is too long (maximum is %d characters)", MaxNameLength))
	}

	if email == "" {
		errs.Add("email", "can't be blank")
	} else {
		if len(email) > MaxEmailLength {
			errs.Add("email", fmt.Sprintf("is too long (maximum is %d characters)", MaxEmailLength))
		}
		if validate.Var(email, "email") != nil {
			errs.Add("email", "format does not appear to be valid")
		}
	}

	if password == "" {
		if requirePassword {
			errs.Add("password", "can't be blank")
		}
	} else if len(password) < MinPasswordLen {
		errs.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", MinPasswordLen))
	}

	return errs
}

// ValidatePicture checks the declared byte size of an attached picture.
func ValidatePicture(size int64) ValidationErrors {
	var errs ValidationErrors
	if size > MaxPictureSize {
		errs.Add("picture", "should be less than 5Mb")
	}
	return errs
}

// Validate checks every order rule and reports all violations together.
func (o *Order) Validate() ValidationErrors {
	var errs ValidationErrors

	if o.Name == "" {
		errs.Add("name", "can't be blank")
	} else if len(o.Name) > MaxNameLength {
		errs.Add("name", fmt.Sprintf("is too long (maximum is %d characters)", MaxNameLength))
	}

	if o.Price < 0 {
		errs.Add("price", "must be greater than or equal to 0")
	} else if o.Price > MaxOrderPrice {
		errs.Add("price", fmt.Sprintf("must be less than or equal to %.2f", MaxOrderPrice))
	}

	if o.Quantity < MinOrderQuantity {
		errs.Add("quantity", fmt.Sprintf("must be greater than or equal to %d", MinOrderQuantity))
	}

	if o.TableID == uuid.Nil {
		errs.Add("table_id", "can't be blank")
	}

	return errs
}
