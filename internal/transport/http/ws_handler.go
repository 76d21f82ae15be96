package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/daily"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/event"
	"quiz-session-engine/internal/session"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
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

type startPayload struct {
	Category string `json:"category"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type hintPayload struct {
	Hint      string `json:"hint"`
	HintsUsed int    `json:"hintsUsed"`
}

// questionView is a question as shown to the player, without the answer.
type questionView struct {
	SessionID        string            `json:"sessionId,omitempty"`
	Index            int               `json:"index"`
	Total            int               `json:"total"`
	ID               string            `json:"id"`
	Prompt           string            `json:"prompt"`
	Options          []string          `json:"options"`
	Category         string            `json:"category"`
	Difficulty       domain.Difficulty `json:"difficulty"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
	HintsAvailable   int               `json:"hintsAvailable"`
}

type stateView struct {
	SessionID        string                `json:"sessionId"`
	Category         string                `json:"category"`
	Phase            string                `json:"phase"`
	Daily            bool                  `json:"daily"`
	Question         *questionView         `json:"question,omitempty"`
	Pending          *string               `json:"pending,omitempty"`
	Last             *session.LastAnswer   `json:"last,omitempty"`
	Answers          []domain.AnswerRecord `json:"answers"`
	Streak           int                   `json:"streak"`
	BestStreak       int                   `json:"bestStreak"`
	ElapsedSeconds   int                   `json:"elapsedSeconds"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	HintsUsed        int                   `json:"hintsUsed"`
}

func newQuestionView(sessionID string, index, total int, q domain.SessionQuestion) questionView {
	return questionView{
		SessionID:        sessionID,
		Index:            index,
		Total:            total,
		ID:               q.Question.ID,
		Prompt:           q.Question.Prompt,
		Options:          q.Options,
		Category:         q.Question.Category,
		Difficulty:       q.Question.Difficulty,
		TimeLimitSeconds: q.TimeLimitSeconds,
		HintsAvailable:   len(q.Question.Hints),
	}
}

func newStateView(snap session.Snapshot, isDaily bool) stateView {
	view := stateView{
		SessionID:        snap.SessionID,
		Category:         snap.Category,
		Phase:            snap.Phase,
		Daily:            isDaily,
		Pending:          snap.Pending,
		Last:             snap.Last,
		Answers:          snap.Answers,
		Streak:           snap.Streak,
		BestStreak:       snap.BestStreak,
		ElapsedSeconds:   snap.ElapsedSeconds,
		RemainingSeconds: snap.RemainingSeconds,
		HintsUsed:        snap.HintsUsed,
	}
	if snap.Question != nil {
		q := newQuestionView(snap.SessionID, snap.Index, snap.Total, *snap.Question)
		view.Question = &q
	}
	return view
}

// outboundFor maps a session event to its wire message.
func outboundFor(e event.Event) (outboundMessage[any], bool) {
	switch e := e.(type) {
	case event.QuestionChanged:
		return outboundMessage[any]{Type: "question", Payload: newQuestionView(e.SessionID, e.Index, e.Total, e.Question)}, true
	case event.AnswerSubmitted:
		return outboundMessage[any]{Type: "answer", Payload: e}, true
	case event.StreakChanged:
		return outboundMessage[any]{Type: "streak", Payload: e}, true
	case event.SessionCompleted:
		return outboundMessage[any]{Type: "completed", Payload: e.Summary}, true
	case event.Triggered:
		return outboundMessage[any]{Type: "triggered", Payload: e}, true
	}
	return outboundMessage[any]{}, false
}

// player owns the sessions of one connection. Only the read loop touches it.
type player struct {
	service *app.QuizService
	userID  string
	name    string
	sink    event.Sink

	sess    *session.Session
	closeFn func()
	daily   bool
}

// practice returns the practice session, replacing a daily one if needed.
func (p *player) practice(ctx context.Context) (*session.Session, error) {
	if p.sess != nil && !p.daily {
		return p.sess, nil
	}
	s, closeFn, err := p.service.NewSession(ctx, p.userID, p.name, p.sink)
	if err != nil {
		return nil, err
	}
	p.swap(s, closeFn, false)
	return s, nil
}

func (p *player) startDaily(ctx context.Context) error {
	s, closeFn, err := p.service.NewDailySession(ctx, p.userID, p.name, p.sink)
	if err != nil {
		return err
	}
	p.swap(s, closeFn, true)
	return s.Start(daily.Category)
}

func (p *player) swap(s *session.Session, closeFn func(), isDaily bool) {
	p.close()
	p.sess, p.closeFn, p.daily = s, closeFn, isDaily
}

func (p *player) close() {
	if p.closeFn != nil {
		p.closeFn()
	}
	p.sess, p.closeFn = nil, nil
}

// ServeWS upgrades HTTP requests to websockets and binds a quiz session to the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if _, err := h.service.Register(ctx, userID, displayName); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events := event.NewChannel(32)
	p := &player{service: h.service, userID: userID, name: displayName, sink: events}
	if _, err := p.practice(ctx); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Unblocks the read loop; keep draining so producers never stall.
				failed = true
				_ = conn.Close()
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case e, ok := <-events.Events():
				if !ok {
					return
				}
				msg, known := outboundFor(e)
				if !known {
					continue
				}
				select {
				case send <- msg:
				case <-closeSignals:
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
		for _, msg := range h.handle(ctx, p, inbound) {
			send <- msg
		}
	}

	p.close()
	close(closeSignals)
	events.Close()
	<-eventsDone
	close(send)
	<-writerDone
}

// handle applies one inbound command. Session events travel separately through
// the event channel; only direct replies are returned here.
func (h *WSHandler) handle(ctx context.Context, p *player, inbound inboundMessage) []outboundMessage[any] {
	fail := func(err error) []outboundMessage[any] {
		return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: err.Error()}}}
	}
	invalid := func(msg string) []outboundMessage[any] {
		return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: msg}}}
	}

	if inbound.Type == "daily" {
		if err := p.startDaily(ctx); err != nil {
			return fail(err)
		}
		return nil
	}

	if inbound.Type == "start" {
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Category == "" {
			return invalid("invalid start payload")
		}
		practice, err := p.practice(ctx)
		if err != nil {
			return fail(err)
		}
		if err := practice.Start(payload.Category); err != nil {
			return fail(err)
		}
		return nil
	}

	s := p.sess
	if s == nil {
		var err error
		if s, err = p.practice(ctx); err != nil {
			return fail(err)
		}
	}

	var err error
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return invalid("invalid select payload")
		}
		err = s.SelectOption(payload.Option)
	case "submit":
		err = s.Submit()
	case "next":
		err = s.Advance()
	case "restart":
		err = s.Restart()
	case "abandon":
		err = s.Abandon()
	case "hint":
		hint, err := s.RevealHint()
		if err != nil {
			return fail(err)
		}
		return []outboundMessage[any]{{Type: "hint", Payload: hintPayload{Hint: hint, HintsUsed: s.Snapshot().HintsUsed}}}
	case "state":
		return []outboundMessage[any]{{Type: "state", Payload: newStateView(s.Snapshot(), p.daily)}}
	default:
		return invalid("unsupported message type")
	}
	if err != nil {
		return fail(err)
	}
	return nil
}
