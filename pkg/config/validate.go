package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/topoview/pkg/errors"
)

// validate reports field errors by their config key.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("koanf")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c and returns an INVALID_INPUT error naming the first
// offending keys.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldError(err)
	}
	if err := errors.ValidateURL(c.BackendURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "backend_url")
	}
	if err := errors.ValidateInterval(c.Interval); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "interval")
	}
	if c.Alerts.Enabled && c.Alerts.SMTP.Host != "" && !c.Alerts.SMTP.IsConfigured() {
		return errors.New(errors.ErrCodeInvalidInput, "alerts.smtp: host is set but from or to is missing")
	}
	return nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", key, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid config: %s", strings.Join(msgs, "; "))
}
