// Package httpserver wires the gin engine: routes, middleware order,
// and the handlers that translate pipeline outcomes into HTTP
// responses.
package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/metrics"
	"github.com/ozanunal0/Prometheus-Gateway/internal/middleware"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
	"github.com/ozanunal0/Prometheus-Gateway/internal/pipeline"
)

const serviceName = "Prometheus Gateway"

// Deps bundles every dependency the HTTP layer needs, constructed once
// in cmd/gateway/main.go and passed in explicitly — a composition root
// rather than package-level singletons, so test suites can build an
// alternate Deps for isolated handler tests.
type Deps struct {
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter
	Pipeline    *pipeline.Pipeline
	Metrics     *metrics.Registry
	Log         *logrus.Logger
}

// New builds the gin engine with every route and middleware wired in
// the order the request-processing contract requires: authenticate,
// then rate-limit, then the pipeline handler.
func New(deps *Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": serviceName + " is running"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/v1/chat/completions",
		deps.Auth.Handler(),
		deps.RateLimiter.Middleware(),
		deps.chatCompletionsHandler(),
	)

	return r
}

func (d *Deps) chatCompletionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		owner := "unknown"
		if v, ok := c.Get(middleware.ContextAPIKeyRecord); ok {
			if rec, ok := v.(*models.APIKey); ok {
				owner = rec.Owner
			}
		}
		model := "unknown"
		statusCode := http.StatusOK

		defer func() {
			// metrics are recorded exactly once per request that reaches
			// this handler, regardless of outcome — this defer runs
			// whether the handler returned normally or via an early
			// return. Requests rejected by the auth (401) or rate-limit
			// (429) middleware never reach this handler and are not
			// recorded.
			d.Metrics.RequestDuration.WithLabelValues(owner, model).Observe(time.Since(start).Seconds())
			d.Metrics.RequestsTotal.WithLabelValues(owner, model, statusCodeLabel(statusCode)).Inc()
		}()

		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			statusCode = http.StatusBadRequest
			c.JSON(statusCode, gin.H{"detail": "invalid request body: " + err.Error()})
			return
		}
		if err := validateChatRequest(&req); err != nil {
			statusCode = http.StatusBadRequest
			c.JSON(statusCode, gin.H{"detail": err.Error()})
			return
		}
		model = req.Model

		outcome, err := d.Pipeline.Process(c.Request.Context(), &req)
		if err != nil {
			statusCode = writeError(c, d.Log, err)
			return
		}

		d.Metrics.RecordUsage(owner, model,
			outcome.Response.Usage.PromptTokens,
			outcome.Response.Usage.CompletionTokens,
			outcome.Response.Usage.TotalTokens,
		)

		c.JSON(http.StatusOK, outcome.Response)
	}
}

func statusCodeLabel(code int) string {
	switch code {
	case 200:
		return "200"
	case 400:
		return "400"
	case 401:
		return "401"
	case 429:
		return "429"
	case 502:
		return "502"
	default:
		return strconv.Itoa(code)
	}
}

// writeError renders err as the gateway's {"detail": ...} body, using a
// StatusError's own code/detail when present (including a propagated
// upstream status+body), and 500 for anything unexpected. Returns the
// status code written so the caller can record it in metrics.
func writeError(c *gin.Context, log *logrus.Logger, err error) int {
	if se, ok := err.(*apierr.StatusError); ok {
		c.JSON(se.Code, gin.H{"detail": se.Detail})
		return se.Code
	}
	log.WithError(err).Error("unhandled pipeline error")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	return http.StatusInternalServerError
}

func validateChatRequest(req *models.ChatRequest) error {
	if req.Model == "" {
		return errModelRequired
	}
	if len(req.Messages) == 0 {
		return errMessagesRequired
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return errInvalidRole
		}
	}
	return nil
}
