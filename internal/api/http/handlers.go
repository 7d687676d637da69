package http

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xilef-bot/evalbot/internal/capability"
	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/evalerr"
	"github.com/xilef-bot/evalbot/internal/infrastructure/monitoring"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// MaxBodyBytes caps the size of a submitted script or message.
const MaxBodyBytes = 64 << 10

// Dispatcher runs debug invocations.
type Dispatcher interface {
	DispatchMessage(ctx context.Context, msg dispatch.Message) *dispatch.Report
	Dispatch(ctx context.Context, req dispatch.Request) *dispatch.Report
}

// Handlers contains all HTTP handlers
type Handlers struct {
	dispatcher   Dispatcher
	capabilities *capability.Registry
	pool         *sandbox.Pool
	metrics      *monitoring.Metrics
	version      string
}

// NewHandlers creates a new handler set. capabilities, pool and metrics may
// be nil; health then omits their section.
func NewHandlers(
	dispatcher Dispatcher,
	capabilities *capability.Registry,
	pool *sandbox.Pool,
	metrics *monitoring.Metrics,
	version string,
) *Handlers {
	return &Handlers{
		dispatcher:   dispatcher,
		capabilities: capabilities,
		pool:         pool,
		metrics:      metrics,
		version:      version,
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	v1.POST("/debug", h.Debug)
	v1.POST("/debug/script", h.DebugScript)
	v1.GET("/debug/help", h.Help)
	v1.GET("/capabilities", h.ListCapabilities)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "evalbot",
		"version": h.version,
	})
}

// Health returns detailed health information
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"version": h.version,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		body["pool"] = stats
		if closed, _ := stats["closed"].(bool); closed {
			body["status"] = "draining"
		}
	}
	if h.capabilities != nil {
		body["capabilities"] = h.capabilities.Stats()
	}
	if h.metrics != nil {
		body["invocations"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

type debugRequest struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Channel string `json:"channel"`
	Content string `json:"content" binding:"required"`
}

// Debug runs the code block of a chat message.
func (h *Handlers) Debug(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var req debugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	report := h.dispatcher.DispatchMessage(c.Request.Context(), dispatch.Message{
		ID:        req.ID,
		Author:    req.Author,
		ChannelID: req.Channel,
		Content:   req.Content,
	})
	h.respond(c, report)
}

// DebugScript runs the request body as script text, without a code fence.
func (h *Handlers) DebugScript(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: empty script"})
		return
	}

	report := h.dispatcher.Dispatch(c.Request.Context(), dispatch.Request{
		Source: string(body),
		Message: dispatch.Message{
			Author:  c.GetHeader("X-Author"),
			Content: string(body),
		},
	})
	h.respond(c, report)
}

// Help returns the command help text.
func (h *Handlers) Help(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.JSON(http.StatusOK, gin.H{"help": dispatch.Help})
		return
	}
	c.String(http.StatusOK, dispatch.Help)
}

// ListCapabilities lists the host capabilities scripts may require.
func (h *Handlers) ListCapabilities(c *gin.Context) {
	defs := []capability.Definition{}
	if h.capabilities != nil {
		defs = h.capabilities.List()
	}
	c.JSON(http.StatusOK, gin.H{
		"prefix":       sandbox.CapabilityPrefix,
		"capabilities": defs,
		"count":        len(defs),
	})
}

func (h *Handlers) respond(c *gin.Context, report *dispatch.Report) {
	c.JSON(statusOf(report), newReportView(report))
}

// statusOf maps a report to a status code. Script failures are a normal
// outcome and keep 200.
func statusOf(report *dispatch.Report) int {
	if report.Failure == nil {
		return http.StatusOK
	}
	switch report.Failure.Kind {
	case evalerr.KindParse:
		return http.StatusBadRequest
	case evalerr.KindBusy:
		return http.StatusServiceUnavailable
	case evalerr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
