package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"socrat/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.ValidationFailed, "op", "bad"), http.StatusBadRequest},
		{apperr.New(apperr.AuthFailed, "op", "no"), http.StatusUnauthorized},
		{apperr.New(apperr.NotFound, "op", "gone"), http.StatusNotFound},
		{apperr.New(apperr.Conflict, "op", "busy"), http.StatusConflict},
		{apperr.New(apperr.RemoteUnavailable, "op", "down"), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", apperr.New(apperr.NotFound, "op", "x")), http.StatusNotFound},
		{ErrInvalidRequest, http.StatusBadRequest},
		{ErrInvalidToken, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
