package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-service/internal/domain"
	"trivia-service/internal/game"
	"trivia-service/internal/infra/broadcast"
)

type WSHandler struct {
	service  *game.GameService
	hub      *broadcast.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *game.GameService, hub *broadcast.Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type idPayload struct {
	ID string `json:"id"`
}

type teamPayload struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	CaptainName string `json:"captainName"`
	Delta       int    `json:"delta"`
}

type domainPayload struct {
	DomainID string `json:"domainId"`
	Name     string `json:"name"`
}

type questionPayload struct {
	QuestionID string   `json:"questionId"`
	DomainID   string   `json:"domainId"`
	Text       string   `json:"text"`
	Answer     string   `json:"answer"`
	Options    []string `json:"options"`
}

type selectPayload struct {
	DomainID   string `json:"domainId"`
	QuestionID string `json:"questionId"`
}

type answerPayload struct {
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	WasTabActive bool   `json:"wasTabActive"`
}

type snapshotPayload struct {
	SnapshotID string `json:"snapshotId"`
	Name       string `json:"name"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// game actions. Hosts drive quiz control and authoring, teams act only
// for their own teamId, and spectators receive state pushes without a
// dispatch surface.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	role := r.URL.Query().Get("role")
	teamID := r.URL.Query().Get("teamId")
	if quizID == "" || (role != "host" && role != "team" && role != "spectator") {
		http.Error(w, "missing quizId or role", http.StatusBadRequest)
		return
	}
	if role == "team" && teamID == "" {
		http.Error(w, "missing teamId", http.StatusBadRequest)
		return
	}

	if _, err := h.service.GetQuiz(r.Context(), quizID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(quizID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("quizId", quizID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
				quiz, err := h.service.GetQuiz(context.Background(), quizID)
				if err != nil {
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: quiz}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if quiz, err := h.service.GetQuiz(r.Context(), quizID); err == nil {
		send <- outboundMessage[any]{Type: "state", Payload: quiz}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r.Context(), send, quizID, role, teamID, inbound); err != nil {
			if !domain.IsRejected(err) {
				h.log.Warn().Err(err).Str("quizId", quizID).Str("action", inbound.Type).Msg("action failed")
			}
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, send chan outboundMessage[any], quizID, role, teamID string, inbound inboundMessage) error {
	if role == "spectator" {
		return errReadOnlySession
	}
	if role == "host" {
		if handled, err := h.dispatchHost(ctx, send, quizID, inbound); handled {
			return err
		}
	}

	switch inbound.Type {
	case "selectDomain":
		var p selectPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.SelectDomain(ctx, quizID, teamID, p.DomainID)
	case "selectQuestion":
		var p selectPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.SelectQuestion(ctx, quizID, teamID, p.QuestionID)
	case "showOptions":
		var p selectPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.ShowOptions(ctx, quizID, teamID, p.QuestionID)
	case "passQuestion":
		var p selectPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.PassQuestion(ctx, quizID, teamID, p.QuestionID)
	case "submitAnswer":
		var p answerPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.SubmitDomainAnswer(ctx, quizID, teamID, p.QuestionID, p.Answer, p.WasTabActive)
	case "buzz":
		return h.service.Buzz(ctx, quizID, teamID)
	case "buzzerAnswer":
		var p answerPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.SubmitBuzzerAnswer(ctx, quizID, teamID, p.QuestionID, p.Answer)
	case "joinTeam":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return h.service.JoinTeam(ctx, quizID, teamID, p.CaptainName)
	}
	return errUnsupportedType
}

func (h *WSHandler) dispatchHost(ctx context.Context, send chan outboundMessage[any], quizID string, inbound inboundMessage) (bool, error) {
	switch inbound.Type {
	case "startDomainRound":
		return true, h.service.StartDomainRound(ctx, quizID)
	case "startBuzzerRound":
		return true, h.service.StartBuzzerRound(ctx, quizID)
	case "pause":
		return true, h.service.PauseQuiz(ctx, quizID)
	case "resume":
		return true, h.service.ResumeQuiz(ctx, quizID)
	case "reset":
		return true, h.service.ResetQuiz(ctx, quizID)
	case "advanceResult":
		return true, h.service.AdvanceResult(ctx, quizID)
	case "createTeam":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		id, err := h.service.CreateTeam(ctx, quizID, p.Name)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "teamCreated", Payload: idPayload{ID: id}}
		return true, nil
	case "updateTeam":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.UpdateTeam(ctx, quizID, p.TeamID, p.Name)
	case "deleteTeam":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.DeleteTeam(ctx, quizID, p.TeamID)
	case "kickCaptain":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.KickCaptain(ctx, quizID, p.TeamID)
	case "adjustScore":
		var p teamPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.AdjustScore(ctx, quizID, p.TeamID, p.Delta)
	case "createDomain":
		var p domainPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		id, err := h.service.CreateDomain(ctx, quizID, p.Name)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "domainCreated", Payload: idPayload{ID: id}}
		return true, nil
	case "updateDomain":
		var p domainPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.UpdateDomain(ctx, quizID, p.DomainID, p.Name)
	case "deleteDomain":
		var p domainPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.DeleteDomain(ctx, quizID, p.DomainID)
	case "createQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		id, err := h.service.CreateQuestion(ctx, quizID, p.DomainID, p.Text, p.Answer, p.Options)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "questionCreated", Payload: idPayload{ID: id}}
		return true, nil
	case "updateQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.UpdateQuestion(ctx, quizID, p.QuestionID, p.Text, p.Answer, p.Options)
	case "deleteQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.DeleteQuestion(ctx, quizID, p.QuestionID)
	case "createBuzzerQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		id, err := h.service.CreateBuzzerQuestion(ctx, quizID, p.Text, p.Answer, p.Options)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "buzzerQuestionCreated", Payload: idPayload{ID: id}}
		return true, nil
	case "updateBuzzerQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.UpdateBuzzerQuestion(ctx, quizID, p.QuestionID, p.Text, p.Answer, p.Options)
	case "deleteBuzzerQuestion":
		var p questionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.DeleteBuzzerQuestion(ctx, quizID, p.QuestionID)
	case "createSnapshot":
		var p snapshotPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		id, err := h.service.CreateSnapshot(ctx, quizID, p.Name)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "snapshotCreated", Payload: idPayload{ID: id}}
		return true, nil
	case "listSnapshots":
		snapshots, err := h.service.ListSnapshots(ctx, quizID)
		if err != nil {
			return true, err
		}
		send <- outboundMessage[any]{Type: "snapshots", Payload: snapshots}
		return true, nil
	case "restoreSnapshot":
		var p snapshotPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.RestoreSnapshot(ctx, p.SnapshotID)
	case "deleteSnapshot":
		var p snapshotPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return true, errInvalidPayload
		}
		return true, h.service.DeleteSnapshot(ctx, p.SnapshotID)
	}
	return false, nil
}

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
	errReadOnlySession = errors.New("spectator sessions cannot send actions")
)
