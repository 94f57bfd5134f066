package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"sifir-drill-service/internal/app"
	"sifir-drill-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.DrillService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.DrillService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	Selected      int `json:"selected"`
}

type startedPayload struct {
	SessionID string        `json:"sessionId"`
	Player    domain.Player `json:"player"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// closeType is an internal marker, never written as JSON.
const closeType = "close"

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts a drill session for the player and
// relays session updates until the final ranked update.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	player := domain.Player{
		Name:      r.URL.Query().Get("name"),
		ClassName: r.URL.Query().Get("class"),
	}
	if player.Name == "" || player.ClassName == "" {
		http.Error(w, "missing name or class", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	session, err := h.service.Start(r.Context(), player)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), session.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if msg.Type == closeType {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn().Err(err).Str("session", session.ID).Msg("ws write error")
				return
			}
		}
	}()

	enqueue(send, writerDone, outboundMessage[any]{Type: "started", Payload: startedPayload{SessionID: session.ID, Player: session.Player}})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					// Session released; the writer closes after flushing.
					select {
					case send <- outboundMessage[any]{Type: closeType}:
					case <-closeSignals:
					case <-writerDone:
					}
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(update.Type), Payload: update.Payload}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply *outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = errorMessage("invalid answer payload")
				break
			}
			err := h.service.SubmitAnswer(r.Context(), session.ID, domain.AnswerSubmission{
				QuestionIndex: payload.QuestionIndex,
				Selected:      payload.Selected,
			})
			// Answers racing the end of the session are dropped silently.
			if err != nil && !errors.Is(err, domain.ErrSessionOver) && !errors.Is(err, domain.ErrSessionNotFound) {
				reply = errorMessage(err.Error())
			}
		default:
			reply = errorMessage("unsupported message type")
		}
		if reply != nil && !enqueue(send, writerDone, *reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped, so callers never block on a dead connection.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func errorMessage(text string) *outboundMessage[any] {
	return &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: text}}
}
