// Package controllers maps the action-dispatched HTTP endpoints onto the
// store. Every response is a JSON envelope with a success flag; validation
// and not-found outcomes are reported with HTTP 200.
package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidAction = "Invalid action specified"
	msgServerError   = "A server error occurred. Please try again later."
	msgAdminOnly     = "Admin authentication required"
)

const jsonBodyKey = "json_body"

// EventPublisher sends order lifecycle events after a commit.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// StatsInvalidator drops cached dashboard statistics.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

type action struct {
	admin   bool
	handler gin.HandlerFunc
}

func public(h gin.HandlerFunc) action { return action{handler: h} }
func admin(h gin.HandlerFunc) action  { return action{admin: true, handler: h} }

// dispatch selects the handler named by the request's action parameter.
func dispatch(actions map[string]action) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := param(c, "action")
		a, found := actions[name]
		if !found {
			fail(c, http.StatusBadRequest, msgInvalidAction)
			return
		}
		c.Set(middlewares.ActionKey, name)
		if a.admin {
			if _, err := middlewares.GetAdminClaims(c); err != nil {
				fail(c, http.StatusUnauthorized, msgAdminOnly)
				return
			}
		}
		a.handler(c)
	}
}

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// invalid reports a validation or not-found outcome.
func invalid(c *gin.Context, message string) {
	c.Set(middlewares.OutcomeKey, middlewares.OutcomeRejected)
	fail(c, http.StatusOK, message)
}

// serverError logs the failure detail and answers with a generic message.
func serverError(c *gin.Context, msg string, err error) {
	slog.Error(msg,
		"error", err,
		"action", c.GetString(middlewares.ActionKey),
		"request_id", c.GetString(middlewares.RequestIDKey))
	fail(c, http.StatusInternalServerError, msgServerError)
}

// jsonBody decodes a JSON request body once and keeps it on the context.
func jsonBody(c *gin.Context) map[string]any {
	if v, exists := c.Get(jsonBodyKey); exists {
		body, _ := v.(map[string]any)
		return body
	}
	var body map[string]any
	if c.Request.Body != nil && c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			slog.Debug("Ignoring undecodable JSON body", "error", err)
			body = nil
		}
	}
	c.Set(jsonBodyKey, body)
	return body
}

// param reads a request field from the query string, then the form, then
// a JSON body. Arrays and objects are returned as raw JSON.
func param(c *gin.Context, key string) string {
	if v, found := c.GetQuery(key); found {
		return strings.TrimSpace(v)
	}
	if c.ContentType() != binding.MIMEJSON {
		if v, found := c.GetPostForm(key); found {
			return strings.TrimSpace(v)
		}
		return ""
	}
	v, found := jsonBody(c)[key]
	if !found || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func hasParam(c *gin.Context, key string) bool {
	if _, found := c.GetQuery(key); found {
		return true
	}
	if c.ContentType() != binding.MIMEJSON {
		_, found := c.GetPostForm(key)
		return found
	}
	_, found := jsonBody(c)[key]
	return found
}

// idParam returns a positive integer field, or false when it is missing or invalid.
func idParam(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(param(c, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decimalParam returns zero for a missing or malformed amount.
func decimalParam(c *gin.Context, key string) decimal.Decimal {
	d, err := decimal.NewFromString(param(c, key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// publish emits an event without failing the request that caused it.
func publish(c *gin.Context, p EventPublisher, event models.OrderEvent) {
	if p == nil {
		return
	}
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 3*time.Second)
	defer cancel()
	if err := p.PublishOrderEvent(ctx, event); err != nil {
		slog.Warn("Failed to publish order event",
			"order_id", event.OrderID, "type", event.Type, "error", err,
			"request_id", c.GetString(middlewares.RequestIDKey))
	}
}

// invalidateStats drops cached dashboard statistics after a committed write,
// whether or not an event broker is configured.
func invalidateStats(c *gin.Context, inv StatsInvalidator) {
	if inv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	err := inv.Invalidate(ctx)
	middlewares.RecordStatsInvalidation(err == nil)
	if err != nil {
		slog.Warn("Failed to invalidate dashboard cache",
			"action", c.GetString(middlewares.ActionKey), "error", err,
			"request_id", c.GetString(middlewares.RequestIDKey))
	}
}
