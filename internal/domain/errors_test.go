package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network failure", &NetworkError{Op: "GET /notifications", Err: errors.New("connection refused")}, true},
		{"wrapped network failure", fmt.Errorf("fetch: %w", &NetworkError{Op: "GET /x"}), true},
		{"too many requests", &ServerError{Status: 429}, true},
		{"internal server error", &ServerError{Status: 500}, true},
		{"bad gateway", &ServerError{Status: 502}, true},
		{"not found", &ServerError{Status: 404}, false},
		{"unauthorized", &ServerError{Status: 401}, false},
		{"validation", &ValidationError{Detail: "title required"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestServerErrorMessage(t *testing.T) {
	assert.Equal(t, "upstream returned status 503", (&ServerError{Status: 503}).Error())
	assert.Equal(t, "upstream returned status 404: gone", (&ServerError{Status: 404, Detail: "gone"}).Error())
}
