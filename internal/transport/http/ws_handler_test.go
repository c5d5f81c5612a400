package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-service/internal/game"
	"trivia-service/internal/infra/broadcast"
	"trivia-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *game.GameService, *broadcast.Hub) {
	t.Helper()
	hub := broadcast.NewHub()
	service := game.NewGameService(memory.NewQuizStore(), memory.NewSnapshotStore(), hub, game.Options{})
	handler := NewWSHandler(service, hub, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service, hub
}

func seedQuiz(t *testing.T, service *game.GameService) (quizID string, teamIDs []string) {
	t.Helper()
	ctx := context.Background()
	quizID, err := service.CreateQuiz(ctx)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for _, name := range []string{"Red", "Blue"} {
		id, err := service.CreateTeam(ctx, quizID, name)
		if err != nil {
			t.Fatalf("create team: %v", err)
		}
		teamIDs = append(teamIDs, id)
	}
	for _, name := range []string{"History", "Science"} {
		domainID, err := service.CreateDomain(ctx, quizID, name)
		if err != nil {
			t.Fatalf("create domain: %v", err)
		}
		for i := 0; i < 2; i++ {
			if _, err := service.CreateQuestion(ctx, quizID, domainID, "question", "answer", nil); err != nil {
				t.Fatalf("create question: %v", err)
			}
		}
	}
	return quizID, teamIDs
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		typ, payload := readNext(t, conn)
		if typ == want {
			return payload
		}
	}
	t.Fatalf("never received %q message", want)
	return nil
}

func TestWebSocketHostStartsDomainRound(t *testing.T) {
	server, service, _ := newTestServer(t)
	quizID, _ := seedQuiz(t, service)

	conn := dial(t, server, "quizId="+quizID+"&role=host")

	typ, payload := readNext(t, conn)
	if typ != "state" {
		t.Fatalf("expected initial state, got %s", typ)
	}
	if payload["phase"] != "waiting" {
		t.Fatalf("expected waiting phase, got %v", payload["phase"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "startDomainRound"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i := 0; i < 5; i++ {
		typ, payload = readNext(t, conn)
		if typ == "state" && payload["phase"] == "selecting_domain" {
			return
		}
	}
	t.Fatalf("never saw selecting_domain state, last phase %v", payload["phase"])
}

func TestWebSocketRejectsOutOfTurnAction(t *testing.T) {
	server, service, _ := newTestServer(t)
	quizID, teamIDs := seedQuiz(t, service)
	if err := service.StartDomainRound(context.Background(), quizID); err != nil {
		t.Fatalf("start round: %v", err)
	}

	quiz, err := service.GetQuiz(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	notCurrent := teamIDs[0]
	if notCurrent == quiz.CurrentTeamID {
		notCurrent = teamIDs[1]
	}

	conn := dial(t, server, "quizId="+quizID+"&role=team&teamId="+notCurrent)
	readUntil(t, conn, "state")

	if err := conn.WriteJSON(map[string]any{
		"type":    "selectDomain",
		"payload": map[string]any{"domainId": quiz.Domains[0].ID},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	payload := readUntil(t, conn, "error")
	if payload["message"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestWebSocketSpectatorReceivesStateButCannotAct(t *testing.T) {
	server, service, _ := newTestServer(t)
	quizID, _ := seedQuiz(t, service)

	conn := dial(t, server, "quizId="+quizID+"&role=spectator")

	payload := readUntil(t, conn, "state")
	if payload["phase"] != "waiting" {
		t.Fatalf("expected waiting phase, got %v", payload["phase"])
	}

	// Spectators follow state changes made by other sessions.
	if err := service.StartDomainRound(context.Background(), quizID); err != nil {
		t.Fatalf("start round: %v", err)
	}
	for i := 0; i < 5; i++ {
		payload = readUntil(t, conn, "state")
		if payload["phase"] == "selecting_domain" {
			break
		}
	}
	if payload["phase"] != "selecting_domain" {
		t.Fatalf("spectator never saw selecting_domain, got %v", payload["phase"])
	}

	// Any action from a spectator session is rejected.
	if err := conn.WriteJSON(map[string]any{"type": "pause"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	payload = readUntil(t, conn, "error")
	if payload["message"] == "" {
		t.Fatalf("expected error message")
	}
	quiz, err := service.GetQuiz(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Phase != "selecting_domain" {
		t.Fatalf("spectator action must not mutate state, got %q", quiz.Phase)
	}
}

func TestWebSocketRequiresQuizAndRole(t *testing.T) {
	server, service, _ := newTestServer(t)
	quizID, _ := seedQuiz(t, service)

	resp, err := http.Get(server.URL + "/ws?quizId=" + quizID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/ws?quizId=missing&role=host")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
