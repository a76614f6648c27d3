package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/study-plans/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/api/study-plans/:id", "204"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/study-plans/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	after := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/api/study-plans/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(generationTotal.WithLabelValues("questions", ResultFallback))
	ObserveGeneration("questions", ResultFallback)
	assert.Equal(t, before+1, testutil.ToFloat64(generationTotal.WithLabelValues("questions", ResultFallback)))
}
