package bitmart

import (
	"bytes"
	"compress/flate"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// feedServer is a mock WebSocket feed for tests. It records every text frame
// clients send, tracks connection counts across reconnects, and broadcasts
// deflate-compressed payloads the way the real feed does.
type feedServer struct {
	server *httptest.Server
	url    string

	mu         sync.Mutex
	conns      map[*websocket.Conn]bool
	frames     [][]byte
	totalConns int
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	f := &feedServer{conns: make(map[*websocket.Conn]bool)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	f.url = "ws" + strings.TrimPrefix(f.server.URL, "http")
	t.Cleanup(f.server.Close)
	return f
}

func (f *feedServer) handle(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conns[conn] = true
	f.totalConns++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.conns, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage {
			f.mu.Lock()
			f.frames = append(f.frames, frame)
			f.mu.Unlock()
		}
	}
}

// broadcast compresses v with raw deflate and sends it to every connected
// client as a text frame, matching the wire format of the real feed.
func (f *feedServer) broadcast(t *testing.T, v interface{}) {
	t.Helper()
	frame := deflateJSON(t, v)

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	}
}

// dropAll severs every active connection to simulate a transport failure.
func (f *feedServer) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		conn.Close()
		delete(f.conns, conn)
	}
}

func (f *feedServer) connectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalConns
}

func (f *feedServer) activeConnections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// receivedRequests decodes every recorded text frame as a subscription
// request, in the order received.
func (f *feedServer) receivedRequests(t *testing.T) []SubscribeRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	requests := make([]SubscribeRequest, 0, len(f.frames))
	for _, frame := range f.frames {
		var req SubscribeRequest
		require.NoError(t, json.Unmarshal(frame, &req))
		requests = append(requests, req)
	}
	return requests
}

// rawFrames returns copies of the recorded frames for shape assertions that
// need the unparsed JSON.
func (f *feedServer) rawFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	frames := make([][]byte, len(f.frames))
	copy(frames, f.frames)
	return frames
}

func deflateJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return deflateBytes(t, payload)
}

func deflateBytes(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = writer.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

// restStub serves the mappings, precisions, and authentication endpoints and
// counts the calls to each.
type restStub struct {
	server *httptest.Server

	mu             sync.Mutex
	mappings       map[string]string
	precisions     map[string]int
	failMappings   bool
	mappingCalls   int
	precisionCalls int
	authCalls      int
	authForms      []map[string]string
}

func newRESTStub(t *testing.T, mappings map[string]string, precisions map[string]int) *restStub {
	t.Helper()
	stub := &restStub{mappings: mappings, precisions: precisions}
	mux := http.NewServeMux()
	mux.HandleFunc("/mappings", stub.handleMappings)
	mux.HandleFunc("/precisions", stub.handlePrecisions)
	mux.HandleFunc("/auth", stub.handleAuth)
	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *restStub) handleMappings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.mappingCalls++
	fail := s.failMappings
	mappings := s.mappings
	s.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var resp mappingsResponse
	group := struct {
		MappingList []struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"mappingList"`
	}{}
	for symbol, name := range mappings {
		group.MappingList = append(group.MappingList, struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		}{Symbol: symbol, Name: name})
	}
	resp.Data.Result = append(resp.Data.Result, group)
	json.NewEncoder(w).Encode(resp)
}

func (s *restStub) handlePrecisions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.precisionCalls++
	precisions := s.precisions
	s.mu.Unlock()

	details := make([]symbolDetail, 0, len(precisions))
	for id, precision := range precisions {
		details = append(details, symbolDetail{ID: id, PriceMaxPrecision: precision})
	}
	json.NewEncoder(w).Encode(details)
}

func (s *restStub) handleAuth(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	form := make(map[string]string)
	for key := range r.PostForm {
		form[key] = r.PostForm.Get(key)
	}

	s.mu.Lock()
	s.authCalls++
	s.authForms = append(s.authForms, form)
	s.mu.Unlock()

	json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-token"})
}

func (s *restStub) setFailMappings(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMappings = fail
}

func (s *restStub) forms() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	forms := make([]map[string]string, len(s.authForms))
	copy(forms, s.authForms)
	return forms
}

func (s *restStub) calls() (mappings, precisions, auth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mappingCalls, s.precisionCalls, s.authCalls
}
