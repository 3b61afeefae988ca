package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	t.Run("disabled without endpoint", func(t *testing.T) {
		t.Setenv(EndpointEnv, "")
		shutdown, err := Setup(context.Background(), "agentcli", "test")
		require.NoError(t, err)
		assert.Same(t, prev, otel.GetTracerProvider())
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("exports spans on shutdown", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/traces" {
				hits.Add(1)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		t.Setenv(EndpointEnv, srv.URL)

		shutdown, err := Setup(context.Background(), "agentcli", "test")
		require.NoError(t, err)
		assert.NotSame(t, prev, otel.GetTracerProvider())

		_, span := otel.Tracer("test").Start(context.Background(), "turn")
		span.End()

		require.NoError(t, shutdown(context.Background()))
		assert.Positive(t, hits.Load())
	})
}
