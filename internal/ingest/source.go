// Package ingest defines message sources and the record checks applied to
// everything they produce before it is queued for analysis.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
)

// Source produces message records. Fetch returns only records not returned
// by earlier calls on the same Source; an empty slice means nothing new.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Message, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(messageHasContent, domain.Message{})

	return v
}

// messageHasContent rejects records with neither text nor images.
func messageHasContent(sl validator.StructLevel) {
	msg, ok := sl.Current().Interface().(domain.Message)
	if !ok {
		return
	}

	if strings.TrimSpace(msg.Text) == "" && len(msg.Images) == 0 {
		sl.ReportError(msg.Text, "text", "Text", "required_without_images", "")
	}
}

// Validate checks the required fields of a record. Failures wrap ErrInvalidMessage.
func Validate(msg domain.Message) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}

		return fmt.Errorf("%w: %s", apperrors.ErrInvalidMessage, strings.Join(fields, ", "))
	}

	return fmt.Errorf("%w: %w", apperrors.ErrInvalidMessage, err)
}
