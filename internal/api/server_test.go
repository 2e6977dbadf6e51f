package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/internal/input"
	"macrorec/internal/input/inputtest"
	"macrorec/internal/macro"
	"macrorec/internal/protocol"
	"macrorec/internal/recorder"
)

type fakeController struct {
	mu        sync.Mutex
	recording int
	played    int
	saved     int
	playErr   error
}

func (f *fakeController) StartRecording(section int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = section
	return nil
}

func (f *fakeController) StopRecording() {}

func (f *fakeController) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.played++
	return nil
}

func (f *fakeController) StopPlayback() {}

func (f *fakeController) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return nil
}

func (f *fakeController) Load() error { return nil }

func (f *fakeController) Status() protocol.Status {
	return protocol.Status{ActiveSection: -1, Sections: 2}
}

func newTestServer(t *testing.T, token string) (*Server, *recorder.Core, *fakeController, *httptest.Server) {
	t.Helper()
	core := recorder.New(
		recorder.WithCaptureFactory(func() (input.Capture, error) { return inputtest.NewCapture(), nil }),
		recorder.WithInjector(&inputtest.Injector{}),
		recorder.WithNotifyInterval(0),
	)
	ctrl := &fakeController{}
	s := NewServer(core, ctrl, token)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, core, ctrl, ts
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthSkipsAuth(t *testing.T) {
	_, _, _, ts := newTestServer(t, "secret")
	assert.Equal(t, http.StatusOK, do(t, "GET", ts.URL+"/health").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, "GET", ts.URL+"/api/status").StatusCode)

	req, _ := http.NewRequest("GET", ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSectionEndpoints(t *testing.T) {
	_, core, _, ts := newTestServer(t, "")

	resp := do(t, "POST", ts.URL+"/api/sections?name=A")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var added map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	assert.Equal(t, 0, added["index"])

	do(t, "POST", ts.URL+"/api/sections?name=B")
	do(t, "POST", ts.URL+"/api/sections")
	do(t, "PUT", ts.URL+"/api/gaps/0?ms=250")
	do(t, "PUT", ts.URL+"/api/gaps/1?ms=750")
	do(t, "PUT", ts.URL+"/api/sections/2?name=C")
	do(t, "POST", ts.URL+"/api/sections/0/move?dir=right")
	do(t, "DELETE", ts.URL+"/api/sections/1")

	snap := core.Snapshot()
	require.Len(t, snap.Sections, 2)
	assert.Equal(t, "B", snap.Sections[0].Name)
	assert.Equal(t, "C", snap.Sections[1].Name)
	assert.Equal(t, []int{1000}, snap.Gaps)
}

func TestStepEndpoints(t *testing.T) {
	_, core, _, ts := newTestServer(t, "")
	core.AddSection("A")

	do(t, "POST", ts.URL+"/api/sections/0/delays?ms=10")
	do(t, "POST", ts.URL+"/api/sections/0/delays?ms=20")
	do(t, "POST", ts.URL+"/api/sections/0/delays?ms=30")
	do(t, "POST", ts.URL+"/api/sections/0/steps/2/move?dir=up")
	do(t, "PUT", ts.URL+"/api/sections/0/steps/0/delay?ms=15")
	do(t, "PUT", ts.URL+"/api/sections/0/steps/1/delay?unit=secs")

	resp := do(t, "POST", ts.URL+"/api/sections/0/steps/move?dir=down&indices=0,1")
	var moved map[string][]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&moved))
	assert.Equal(t, []int{1, 2}, moved["indices"])

	do(t, "DELETE", ts.URL+"/api/sections/0/steps/0")

	assert.Equal(t, []macro.Step{
		macro.Millis(15),
		macro.Delay{Amount: 30, Unit: macro.UnitSeconds},
	}, core.Snapshot().Sections[0].Steps)
}

func TestMalformedNumbersRejected(t *testing.T) {
	_, _, _, ts := newTestServer(t, "")
	tests := []struct{ method, path string }{
		{"DELETE", "/api/sections/abc"},
		{"POST", "/api/sections/0/delays?ms=ten"},
		{"POST", "/api/sections/0/delays?ms=-3"},
		{"POST", "/api/sections/0/delays"},
		{"PUT", "/api/gaps/0?ms=1.5"},
		{"PUT", "/api/sections/0/steps/0/delay?unit=days"},
		{"POST", "/api/sections/0/steps/move?dir=up&indices=1,x"},
		{"POST", "/api/sections/0/move?dir=sideways"},
		{"POST", "/api/record/start?section=first"},
	}
	for _, tt := range tests {
		resp := do(t, tt.method, ts.URL+tt.path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestMacroGetPut(t *testing.T) {
	_, core, _, ts := newTestServer(t, "")

	body := `{"sections":[{"name":"x","steps":[{"type":"press","key":"a"}]}],"delays_between":[]}`
	req, _ := http.NewRequest("PUT", ts.URL+"/api/macro", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "x", core.Snapshot().Sections[0].Name)

	get := do(t, "GET", ts.URL+"/api/macro")
	etag := get.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ = http.NewRequest("GET", ts.URL+"/api/macro", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	req, _ = http.NewRequest("PUT", ts.URL+"/api/macro", strings.NewReader(`{"sections":[{"name":"x","steps":[{"type":"teleport"}]}]}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestControlEndpoints(t *testing.T) {
	_, _, ctrl, ts := newTestServer(t, "")

	assert.Equal(t, http.StatusOK, do(t, "POST", ts.URL+"/api/record/start?section=3").StatusCode)
	assert.Equal(t, http.StatusAccepted, do(t, "POST", ts.URL+"/api/play").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "POST", ts.URL+"/api/save").StatusCode)

	ctrl.mu.Lock()
	ctrl.playErr = recorder.ErrAlreadyPlaying
	ctrl.mu.Unlock()
	assert.Equal(t, http.StatusConflict, do(t, "POST", ts.URL+"/api/play").StatusCode)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	assert.Equal(t, 3, ctrl.recording)
	assert.Equal(t, 1, ctrl.played)
	assert.Equal(t, 1, ctrl.saved)
}

func TestWebSocketBroadcasts(t *testing.T) {
	s, core, _, ts := newTestServer(t, "tok")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=tok"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.wsMgr.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	core.AddSection("A")
	s.StructureChanged()
	s.PlaybackPosition(0, -1, true)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var changed struct {
		Type    protocol.MessageType `json:"type"`
		Payload json.RawMessage      `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&changed))
	assert.Equal(t, protocol.TypeChanged, changed.Type)
	m, err := macro.Decode(changed.Payload)
	require.NoError(t, err)
	assert.Equal(t, "A", m.Sections[0].Name)

	var pos struct {
		Type    protocol.MessageType     `json:"type"`
		Payload protocol.PositionPayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&pos))
	assert.Equal(t, protocol.TypePosition, pos.Type)
	assert.Equal(t, protocol.PositionPayload{Section: 0, Step: -1, Entering: true}, pos.Payload)
}

func TestWebSocketSyncRequest(t *testing.T) {
	_, core, _, ts := newTestServer(t, "")
	core.AddSection("Only")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypeSyncRequest}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first, second protocol.Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, protocol.TypeChanged, first.Type)
	assert.Equal(t, protocol.TypeStatus, second.Type)
}
