package websocket

import (
	"context"
	"net/http"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/redis"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ResultsComputer interface {
	Compute(ctx context.Context, pollID uuid.UUID) (poll.Results, error)
}

// ViewerTracker records live viewers across instances.
type ViewerTracker interface {
	Touch(ctx context.Context, pollID uuid.UUID, viewerID string) error
	Leave(ctx context.Context, pollID uuid.UUID, viewerID string) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub     *Hub
	results ResultsComputer
	viewers ViewerTracker
	logger  *logger.Logger
}

// NewHandler creates the live results handler. viewers may be nil.
func NewHandler(hub *Hub, results ResultsComputer, viewers ViewerTracker, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Handler{hub: hub, results: results, viewers: viewers, logger: l}
}

// Live handles GET /v1/polls/:id/live. The first message is the current
// tally; every later message is a newer tally pushed after a cast or release.
// The viewer is subscribed before the first tally is computed, so a write
// that commits in between is either in that tally or pushed afterwards.
func (h *Handler) Live(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	client := NewClient(nil, pollID, redis.ResultsChannel(pollID))
	h.hub.Register(client)

	initial, err := h.results.Compute(c.Request.Context(), pollID)
	if err != nil {
		h.hub.Unregister(client)
		c.JSON(httpdto.FromError(err))
		return
	}
	payload, err := events.EncodeResults(events.EventTypeResultsSnapshot, initial, time.Now())
	if err != nil {
		h.hub.Unregister(client)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
		return
	}
	h.hub.SendTo(client, initial.Version, payload)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.Unregister(client)
		h.logger.Warn(c.Request.Context(), "websocket_upgrade_failed", zap.Error(err))
		return
	}
	client.Conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.WriteLoop(ctx)
	if h.viewers != nil {
		go h.heartbeat(ctx, client)
	}

	client.ReadLoop()

	h.hub.Unregister(client)
	if h.viewers != nil {
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = h.viewers.Leave(leaveCtx, pollID, client.ID)
		leaveCancel()
	}
}

func (h *Handler) heartbeat(ctx context.Context, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		if err := h.viewers.Touch(ctx, client.PollID, client.ID); err != nil && ctx.Err() == nil {
			h.logger.Warn(ctx, "viewer_heartbeat_failed", zap.String("poll_id", client.PollID.String()), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
