package pkg

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"invalid state", ErrInvalidState, http.StatusConflict},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"transient", ErrTransient, http.StatusServiceUnavailable},
		{"configuration", ErrConfiguration, http.StatusInternalServerError},
		{"bilinmeyen error", fmt.Errorf("beklenmedik"), http.StatusInternalServerError},
		// Servisler sentinel'leri sarar — wrap edilmiş hali de match etmeli
		{"wrapped configuration", fmt.Errorf("%w: global channel is not provisioned", ErrConfiguration), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("%w: channel", ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToStatus(tt.err); got != tt.want {
				t.Errorf("mapErrorToStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
