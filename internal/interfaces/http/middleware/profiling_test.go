package middleware

import (
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_LabelsRequestContext(t *testing.T) {
	labels := map[string]string{}

	r := gin.New()
	r.Use(Profiling())
	r.POST("/api/v1/channels/:id/test-connection", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			labels[key] = value
			return true
		})
		c.Status(http.StatusOK)
	})

	performRequest(r, http.MethodPost, "/api/v1/channels/"+testChannelID+"/test-connection", nil)

	assert.Equal(t, map[string]string{
		"route":      "/api/v1/channels/:id/test-connection",
		"method":     http.MethodPost,
		"channel_id": testChannelID,
	}, labels)
}

func TestProfiling_SkipPaths(t *testing.T) {
	var labelled bool

	r := gin.New()
	r.Use(Profiling())
	r.GET("/health", func(c *gin.Context) {
		_, labelled = pprof.Label(c.Request.Context(), "route")
		c.Status(http.StatusOK)
	})

	performRequest(r, http.MethodGet, "/health", nil)

	assert.False(t, labelled)
}

func TestProfilingWithConfig_Disabled(t *testing.T) {
	var labelled bool

	r := gin.New()
	r.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))
	r.GET("/x", func(c *gin.Context) {
		_, labelled = pprof.Label(c.Request.Context(), "method")
		c.Status(http.StatusOK)
	})

	performRequest(r, http.MethodGet, "/x", nil)

	assert.False(t, labelled)
}
