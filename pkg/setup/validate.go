package setup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateDocument checks the declared constraints on a configuration
// document. Reference resolution and semantic checks happen during Build.
func ValidateDocument(doc *Document) error {
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationError(verrs)
		}
		return err
	}
	return nil
}

func formatValidationError(errs validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("invalid network configuration: ")
	for i, fe := range errs {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("field '%s' failed '%s' validation", fieldPath(fe), fe.Tag()))
	}
	return errors.New(sb.String())
}

// fieldPath strips the root struct name so errors read as document paths,
// e.g. Sources[2].Separator.WaterFit.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
