package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTraceRequest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/health", want: false},
		{path: "/healthz", want: false},
		{path: "/livez", want: false},
		{path: "/readyz", want: false},
		{path: "/metrics", want: false},
		{path: " /healthz ", want: false},
		{path: "/HEALTHZ", want: false},
		{path: "/event_einkunn_saeti", want: true},
		{path: "/event_raslisti_birtur", want: true},
		{path: "/webhooks/test", want: true},
		{path: "/999/a/sorted", want: true},
		{path: "/leaderboard.csv", want: true},
		{path: "/cache/raslisti/clear", want: true},
		{path: "/health/extra", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldTraceRequest(tt.path))
		})
	}
}
