package handlers

import (
  "net/http"
  "sync"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/roadmap-backend/internal/logger"
  "github.com/yungbote/roadmap-backend/internal/sse"
)

type SSEHandler struct {
  log *logger.Logger
  hub *sse.SSEHub

  mu      sync.RWMutex
  clients map[uuid.UUID]*sse.SSEClient
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{
    log:     log.With("handler", "SSEHandler"),
    hub:     hub,
    clients: make(map[uuid.UUID]*sse.SSEClient),
  }
}

// GET /sse/stream
//
// Every stream is auto-subscribed to the roadmap channel. The first
// message carries the client id used by subscribe/unsubscribe.
func (h *SSEHandler) SSEStream(c *gin.Context) {
  client := h.hub.NewSSEClient()

  h.mu.Lock()
  h.clients[client.ID] = client
  h.mu.Unlock()

  h.hub.AddChannel(client, sse.ChannelRoadmap)
  h.log.Info("SSE stream open", "clientID", client.ID)

  client.Outbound <- sse.SSEMessage{
    Channel: sse.ChannelRoadmap,
    Event:   sse.SSEEventConnected,
    Data:    gin.H{"client_id": client.ID.String()},
  }

  h.hub.ServeHTTP(c.Writer, c.Request, client)

  h.mu.Lock()
  delete(h.clients, client.ID)
  h.mu.Unlock()
  h.hub.CloseClient(client)
}

// POST /sse/subscribe
func (h *SSEHandler) SSESubscribe(c *gin.Context) {
  client, channel, ok := h.bindChannelReq(c)
  if !ok {
    return
  }
  h.hub.AddChannel(client, channel)
  RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

// POST /sse/unsubscribe
func (h *SSEHandler) SSEUnsubscribe(c *gin.Context) {
  client, channel, ok := h.bindChannelReq(c)
  if !ok {
    return
  }
  h.hub.RemoveChannel(client, channel)
  RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *SSEHandler) bindChannelReq(c *gin.Context) (*sse.SSEClient, string, bool) {
  var req struct {
    ClientID string `json:"client_id"`
    Channel  string `json:"channel"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
    return nil, "", false
  }
  clientID, err := uuid.Parse(req.ClientID)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
    return nil, "", false
  }

  h.mu.RLock()
  client, exists := h.clients[clientID]
  h.mu.RUnlock()
  if !exists {
    c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this client"})
    return nil, "", false
  }
  return client, req.Channel, true
}
