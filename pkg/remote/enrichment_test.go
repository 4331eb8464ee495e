package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &FetchError{URL: "http://x/api/products/1", StatusCode: 503, Err: errors.New("boom")}, "product: remote fetch failed (status 503)"},
		{"no response", &FetchError{URL: "http://x", Err: errors.New("connection refused")}, "product: remote fetch failed"},
		{"timeout", &FetchError{URL: "http://x", Err: context.DeadlineExceeded}, "product: remote fetch timed out"},
		{"cancelled", context.Canceled, "product: remote fetch cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe("product", tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "http://")
		})
	}
}
