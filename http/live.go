package http

import (
	"encoding/json"
	"net/http"
	"time"

	"heartrisk/metrics"
	"heartrisk/ml"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameBytes  = 64 << 10
	liveSendBuffer = 16
)

// MessageType live message type
type MessageType string

const (
	MessagePrediction MessageType = "prediction"
	MessageError      MessageType = "error"
)

// liveRequest is one form snapshot sent by the browser whenever a widget
// changes.
type liveRequest struct {
	ID     string          `json:"id,omitempty"`
	Inputs json.RawMessage `json:"inputs"`
}

// liveMessage is the reply to a liveRequest.
type liveMessage struct {
	Type       MessageType      `json:"type"`
	ID         string           `json:"id,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Prediction *predictResponse `json:"prediction,omitempty"`
	Error      *errorResponse   `json:"error,omitempty"`
}

type liveClient struct {
	conn     *websocket.Conn
	send     chan []byte
	clientID string
	lang     language.Tag
}

// RegisterLiveHandlers mounts the websocket endpoint. origins follows the
// CORS allow-list; "*" accepts any origin.
func RegisterLiveHandlers(mux *http.ServeMux, origins []string) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
	mux.HandleFunc("GET /api/ws/predict", func(w http.ResponseWriter, r *http.Request) {
		handleLivePredict(upgrader, w, r)
	})
}

func handleLivePredict(upgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:     conn,
		send:     make(chan []byte, liveSendBuffer),
		clientID: uuid.NewString(),
		lang:     requestLanguage(r),
	}
	logger.Debug("live client connected", zap.String("client_id", client.clientID))

	go client.writePump()
	client.readPump()
}

// writePump owns all writes to the connection.
func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write error", zap.String("client_id", c.clientID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump answers every inbound frame in order until the peer goes away.
func (c *liveClient) readPump() {
	defer func() {
		close(c.send)
		logger.Debug("live client disconnected", zap.String("client_id", c.clientID))
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.String("client_id", c.clientID), zap.Error(err))
			}
			return
		}

		reply, err := json.Marshal(c.handle(data))
		if err != nil {
			logger.Error("encode live reply", zap.Error(err))
			return
		}

		select {
		case c.send <- reply:
		default:
			logger.Warn("live client too slow, closing", zap.String("client_id", c.clientID))
			return
		}
	}
}

func (c *liveClient) handle(data []byte) liveMessage {
	start := time.Now()

	var req liveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return liveMessage{
			Type:      MessageError,
			Timestamp: start,
			Error:     &errorResponse{Error: "malformed frame: " + err.Error()},
		}
	}

	var result ml.PredictionResult
	raw, err := ml.DecodeRawInputs(req.Inputs)
	if err != nil && ml.KindOf(err) == "" {
		return liveMessage{
			Type:      MessageError,
			ID:        req.ID,
			Timestamp: start,
			Error:     &errorResponse{Error: "malformed inputs: " + err.Error()},
		}
	}
	if err == nil {
		result, err = predict(raw)
	}
	metrics.Observe("ws", start, result, err)
	if err != nil {
		_, body := classifyError(err)
		return liveMessage{Type: MessageError, ID: req.ID, Timestamp: start, Error: &body}
	}

	resp := newPredictResponse(c.lang, result)
	return liveMessage{Type: MessagePrediction, ID: req.ID, Timestamp: start, Prediction: &resp}
}
