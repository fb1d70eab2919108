package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
	"content-pipeline/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// LogTailer reads and maintains the job log.
type LogTailer interface {
	Tail(ctx context.Context, filter models.LogFilter) (*models.LogTail, error)
	Clear(ctx context.Context, olderThanDays *int) (int64, error)
	Stats(ctx context.Context, window time.Duration) (*models.LogStats, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Identity comes from headers set by the gateway, not from cookies.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *PipelineHandler) parseLogFilter(c *gin.Context) (models.LogFilter, bool) {
	after, since, err := utils.ParseLogCursor(c.Query("since"))
	if err != nil {
		badRequest(c, err.Error())
		return models.LogFilter{}, false
	}
	filter := models.LogFilter{
		After:  after,
		Since:  since,
		Level:  models.LogLevel(c.Query("level")),
		Source: c.Query("source"),
		JobID:  c.Query("job_id"),
		Search: c.Query("search"),
		Limit:  h.defaultTailLimit,
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			badRequest(c, "invalid limit "+strconv.Quote(raw))
			return models.LogFilter{}, false
		}
		filter.Limit = min(limit, 1000)
	}
	return filter, true
}

func (h *PipelineHandler) tailLogs(c *gin.Context) {
	filter, ok := h.parseLogFilter(c)
	if !ok {
		return
	}
	tail, err := h.svc.Logs.Tail(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tail)
}

func (h *PipelineHandler) clearLogs(c *gin.Context) {
	var olderThanDays *int
	if raw := c.Query("older_than_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid older_than_days "+strconv.Quote(raw))
			return
		}
		olderThanDays = &days
	}
	deleted, err := h.svc.Logs.Clear(c.Request.Context(), olderThanDays)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *PipelineHandler) logStats(c *gin.Context) {
	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			badRequest(c, "invalid window "+strconv.Quote(raw))
			return
		}
		window = d
	}
	stats, err := h.svc.Logs.Stats(c.Request.Context(), window)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// streamLogs pushes new log entries over a websocket. It polls the same tail
// query the REST endpoint uses and advances the cursor after every batch.
func (h *PipelineHandler) streamLogs(c *gin.Context) {
	filter, ok := h.parseLogFilter(c)
	if !ok {
		return
	}
	// Fail before the upgrade when the caller may not read logs.
	first, err := h.svc.Logs.Tail(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade log stream connection", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(tail *models.LogTail) bool {
		if tail.Cursor > filter.After {
			filter.After = tail.Cursor
		}
		if len(tail.Entries) == 0 {
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(tail); err != nil {
			h.logger.Debug("Log stream write failed", zap.Error(err))
			return false
		}
		return true
	}
	if !send(first) {
		return
	}

	poll := time.NewTicker(h.logPollInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-poll.C:
			tail, err := h.svc.Logs.Tail(ctx, filter)
			if err != nil {
				if ctx.Err() == nil {
					h.logger.Warn("Log stream tail failed", zap.Error(err))
				}
				continue
			}
			if !send(tail) {
				return
			}
		}
	}
}

var _ LogTailer = (*service.JobLogStream)(nil)
