package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/service"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

const (
	sessionCookie = "duck_session"

	ctxSession  = "session"
	ctxRecorder = "notifications"

	// statusClientClosed is logged when the caller went away before the result was ready
	statusClientClosed = 499
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// sessionMiddleware resolves the caller's session. A missing or bad token is an
// absent session; the protected operations decide what that means.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRecorder, notify.NewRecorder())

		current := mo.None[session.Session]()
		if token := bearerToken(c); token != "" {
			id, err := h.deps.Tokens.Parse(token)
			if err == nil {
				current, err = h.deps.Sessions.Load(c.Request.Context(), id)
				if err != nil {
					h.logger.Error("Failed to load session", zap.Error(err))
					current = mo.None[session.Session]()
				}
			}
		}
		c.Set(ctxSession, current)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

func currentSession(c *gin.Context) mo.Option[session.Session] {
	if v, ok := c.Get(ctxSession); ok {
		if current, ok := v.(mo.Option[session.Session]); ok {
			return current
		}
	}
	return mo.None[session.Session]()
}

func recorder(c *gin.Context) *notify.Recorder {
	if v, ok := c.Get(ctxRecorder); ok {
		if r, ok := v.(*notify.Recorder); ok {
			return r
		}
	}
	r := notify.NewRecorder()
	c.Set(ctxRecorder, r)
	return r
}

// sink delivers to the response, the log, and the session's inbox when there is one
func (h *Handler) sink(c *gin.Context) notify.Sink {
	sinks := []notify.Sink{recorder(c)}
	if s, ok := currentSession(c).Get(); ok {
		sinks = append(sinks,
			h.deps.Inbox.For(s.ID),
			notify.LogSink(h.logger, zap.String("session_id", s.ID)))
	} else {
		sinks = append(sinks, notify.LogSink(h.logger))
	}
	return notify.Fanout(sinks...)
}

// respond writes body with the request's notifications attached
func respond(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["notifications"] = recorder(c).Notifications()
	c.JSON(status, body)
}

// fail writes the status for err
func fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == statusClientClosed {
		c.AbortWithStatus(status)
		return
	}
	respond(c, status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrFlowAbandoned):
		return statusClientClosed
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, service.ErrLoginFailed):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCheckoutInFlight), errors.Is(err, gateway.ErrDuplicateUsername):
		return http.StatusConflict
	}

	switch service.ClassifyFailure(err) {
	case service.FailureValidation:
		return http.StatusUnprocessableEntity
	case service.FailureStockConflict:
		return http.StatusConflict
	case service.FailureNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
