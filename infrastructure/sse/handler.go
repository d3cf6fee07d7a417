package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
)

// Handler streams broker events to the client until it disconnects.
// A heartbeat comment is written every heartbeat interval.
func Handler(broker Broker, heartbeat time.Duration, logger infralogger.Logger, opts ...ClientOption) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}

	return func(c *gin.Context) {
		events, cleanup := broker.Subscribe(c.Request.Context(), opts...)
		defer cleanup()

		select {
		case _, ok := <-events:
			if !ok {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many connections"})
				return
			}
		default:
		}

		h := c.Writer.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		// The stream outlives the server's WriteTimeout.
		_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

		connected := Event{Type: eventTypeConnected, Data: gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)}}
		if err := writeAndFlush(c.Writer, connected); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeAndFlush(c.Writer, event); err != nil {
					logger.Debug("SSE write failed", infralogger.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(c.Writer, ": heartbeat\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

func writeAndFlush(w gin.ResponseWriter, event Event) error {
	if err := WriteEvent(w, event); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// WriteEvent encodes one SSE frame.
func WriteEvent(w io.Writer, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", event.Type, err)
	}

	frame := ""
	if event.Type != "" {
		frame += "event: " + event.Type + "\n"
	}
	if event.ID != "" {
		frame += "id: " + event.ID + "\n"
	}
	frame += "data: " + string(data) + "\n\n"

	if _, err = io.WriteString(w, frame); err != nil {
		return fmt.Errorf("write %s frame: %w", event.Type, err)
	}
	return nil
}
