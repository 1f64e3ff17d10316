package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"http://localhost:5000",
		"https://ops.example.com/topology",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateURL(u), u)
	}

	invalid := []string{
		"",
		"ftp://example.com",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"example.com",
		"http://",
	}
	for _, u := range invalid {
		err := ValidateURL(u)
		if assert.Error(t, err, u) {
			assert.Equal(t, ErrCodeInvalidInput, GetCode(err), u)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	tests := []struct {
		in      time.Duration
		wantErr bool
	}{
		{5 * time.Second, false},
		{time.Second, false},
		{time.Minute, false},
		{0, true},
		{500 * time.Millisecond, true},
		{-time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			err := ValidateInterval(tt.in)
			if tt.wantErr {
				assert.True(t, Is(err, ErrCodeInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
