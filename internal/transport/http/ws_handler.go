package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/akkalak213/edpplatform-sub000/internal/app"
	"github.com/akkalak213/edpplatform-sub000/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection. The client
// sends protocol commands; the handler pushes a snapshot on every state
// change and timer tick. Host-side focus/visibility loss arrives as a
// "violation" command — detection stays in the client, only the effect is
// enforced here.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
	return &WSHandler{
		service: service,
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

type selectPayload struct {
	ChoiceIndex int `json:"choiceIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// statePayload is a session snapshot plus the m:ss display form of the
// elapsed counter, so clients never reimplement the formatting.
type statePayload struct {
	domain.SessionSnapshot
	ElapsedDisplay string `json:"elapsedDisplay"`
}

func newStatePayload(snapshot domain.SessionSnapshot) statePayload {
	return statePayload{
		SessionSnapshot: snapshot,
		ElapsedDisplay:  app.FormatElapsed(snapshot.ElapsedSeconds),
	}
}

// ServeWS upgrades the request and wires the connection into a fresh quiz
// session. The session is discarded when the connection closes; a client
// retrying a voided attempt reconnects and gets a new session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.BeginQuiz(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.DiscardSession(session.ID())

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: newStatePayload(snapshot)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// trySend never blocks on a dead writer: if the write goroutine exited
	// on a connection error, the read loop winds down instead of stalling
	// on a full channel.
	trySend := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	trySend(outboundMessage[any]{Type: "questions", Payload: session.Questions()})

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			session.Start()
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}) {
					break readLoop
				}
				continue
			}
			session.SelectChoice(payload.ChoiceIndex)
		case "lock":
			session.ConfirmLock()
		case "unlock":
			session.Unlock()
		case "advance":
			finished, err := session.Advance(r.Context())
			if err != nil {
				retryable := errors.Is(err, domain.ErrSubmissionFailed)
				if !trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Retryable: retryable}}) {
					break readLoop
				}
				continue
			}
			if finished {
				if result, ok := session.Result(); ok {
					if !trySend(outboundMessage[any]{Type: "result", Payload: result}) {
						break readLoop
					}
				}
			}
		case "violation":
			session.ReportIntegrityViolation()
		default:
			if !trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}) {
				break readLoop
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
