package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	v.RegisterStructValidation(questionDraftRules, QuestionDraft{})
	return v
}

func questionDraftRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(QuestionDraft)
	if len(q.Options) == 0 {
		return
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "option_index", "")
	}
}

// Validate checks the draft's shape: a non-blank title, at least one question,
// and for each question non-blank text, at least two non-blank options and a
// correct answer that indexes an existing option.
func (d Draft) Validate() error {
	return translate(validate.Struct(d))
}

// ScoreInput is the payload of a result to record.
type ScoreInput struct {
	Score          int `json:"score" validate:"gte=0,ltefield=TotalQuestions"`
	TotalQuestions int `json:"totalQuestions" validate:"gt=0"`
}

// ValidateScore requires total > 0 and 0 <= score <= total.
func ValidateScore(score, total int) error {
	return translate(validate.Struct(ScoreInput{Score: score, TotalQuestions: total}))
}

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// Credentials is the payload of a registration.
type Credentials struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Validate requires every credential field to be present and the password
// to fit in MaxPasswordBytes bytes.
func (c Credentials) Validate() error {
	if err := translate(validate.Struct(c)); err != nil {
		return err
	}
	if len(c.Password) > MaxPasswordBytes {
		return NewValidationError("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldPath(fe.Namespace()), Message: describe(fe)}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "ltefield":
		return "must not exceed totalQuestions"
	case "option_index":
		return "must index one of the options"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
