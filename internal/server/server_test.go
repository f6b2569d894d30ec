package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/loubot/internal/chat"
	"github.com/agenthands/loubot/internal/collab"
	"github.com/agenthands/loubot/internal/core/community"
	"github.com/agenthands/loubot/internal/core/episodic"
	"github.com/agenthands/loubot/internal/core/ingest"
	"github.com/agenthands/loubot/internal/core/kb"
	"github.com/agenthands/loubot/internal/core/relations"
	"github.com/agenthands/loubot/internal/core/social"
	"github.com/agenthands/loubot/internal/graph"
	"github.com/agenthands/loubot/internal/session"
)

const testSession = "alice@example.com"

const familyProgram = `male(john).
parent(john, mary).
parent(mary, sue).
grandparent(X, Y) :- parent(X, Z), parent(Z, Y).
`

type flatAnalyzer struct{}

func (flatAnalyzer) Compound(string) float64 { return 0 }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*gin.Engine, *graph.MemStore) {
	t.Helper()
	store := graph.NewMemStore()
	registry, err := kb.NewRegistry(8, time.Second, nil)
	require.NoError(t, err)

	rel := relations.NewService(store, community.NewLabelPropagationDetector(), nil)
	episodes := episodic.NewManager(store, flatAnalyzer{}, nil)
	detections := collab.NewDetectionStore(16, time.Minute, time.Hour)
	telemetry := collab.NewLatestTelemetry(0)

	srv := NewServer(Deps{
		Ingest:     ingest.NewService(store, registry, nil, nil),
		Chat:       chat.NewService(rel, episodes, social.NewService(store, episodes, nil), chat.NewRenderer(detections, telemetry, nil), nil),
		Relations:  rel,
		Sessions:   session.NewMemoryStore(),
		Detections: detections,
		Telemetry:  telemetry,
		Health:     store,
	}, []string{"*"}, nil)
	return srv.SetupRouter(), store
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, testSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(r http.Handler, program string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile(uploadField, "family.pl")
	_, _ = fw.Write([]byte(program))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/knowledge/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(SessionHeader, testSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestMissingSessionHeader(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/graph/clusters", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r, store := newTestServer(t)

	w := do(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	store.SetUnavailable(errors.New("down"))
	w = do(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadAndAskRelation(t *testing.T) {
	r, _ := newTestServer(t)

	w := upload(r, familyProgram)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Contains(t, body["bot_response"], "Processed 1 facts, 2 direct relationships, and 1 inferred relationships from 1 rules.")
	summary := body["summary"].(map[string]interface{})
	assert.EqualValues(t, 1, summary["inferredRelationshipsProcessed"])

	w = do(r, http.MethodPost, "/chat/relation", RelationChatRequest{Subject: "Sue", Relation: "grandparent", Message: "who is sue's grandparent?"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "John", body["bot_response"])
	assert.NotNil(t, body["graph_data"])

	w = do(r, http.MethodGet, "/graph/relation?name=mary&relation=parent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	graphData := decode(t, w)["graph_data"].(map[string]interface{})
	assert.Len(t, graphData["links"], 2)

	w = do(r, http.MethodGet, "/graph/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["clusters"], 1)
}

func TestUploadErrors(t *testing.T) {
	r, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/knowledge/upload", strings.NewReader(""))
	req.Header.Set(SessionHeader, testSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file received.", decode(t, w)["error"])

	w = upload(r, "parent(john, mary\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Syntax error in Prolog file.", decode(t, w)["error"])

	store.SetUnavailable(errors.New("connection refused"))
	w = upload(r, familyProgram)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, ingest.StoreUnavailableMessage, body["bot_response"])
	assert.NotEmpty(t, body["error"])
}

func TestRelationChatNoKnowledge(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/chat/relation", RelationChatRequest{Subject: "bob", Relation: "uncle"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, relations.NoKnowledge, body["bot_response"])
	assert.Nil(t, body["graph_data"])

	w = do(r, http.MethodPost, "/chat/relation", map[string]string{"subject": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSocialChat(t *testing.T) {
	r, store := newTestServer(t)

	w := do(r, http.MethodPost, "/chat/turn", TurnRequest{Message: "hello", BotResponse: "Do you know Ravi?"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/chat/social", SocialChatRequest{Relation: "Colleague", Message: "he is my colleague", BotResponse: "Got it."})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["created"])
	assert.Equal(t, []string{"is_colleague"}, store.SocialLabels(testSession, testSession))
}

func TestSessionValues(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/session/last_topic", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/session/last_topic", SessionValueRequest{Value: "family"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/session/last_topic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "family", decode(t, w)["value"])

	w = do(r, http.MethodGet, "/session/last_topic?ttl=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetectionsAndTelemetryFeedPlaceholders(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodPost, "/detections", DetectionsRequest{Detections: []collab.Detection{{Name: "cup", Confidence: 0.8}}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/telemetry", collab.Telemetry{Battery: 64})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/chat/turn", TurnRequest{Message: "status?", BotResponse: "{{CHECK_OBJECT_cup}} {{BATTERY_LEVEL}}"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Yes, I can see a cup in my field of view! My battery level is at 64%.", decode(t, w)["bot_response"])

	w = do(r, http.MethodGet, "/detections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Currently seeing: 1 cup", body["summary"])
	assert.Len(t, body["detections"], 1)
}
