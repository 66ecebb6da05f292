package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heartrisk/ml"

	"github.com/gorilla/websocket"
)

func dialLive(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestHandler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/predict" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func liveFrame(t *testing.T, id string, inputs interface{}) liveRequest {
	t.Helper()
	payload, err := json.Marshal(inputs)
	if err != nil {
		t.Fatalf("marshal inputs: %v", err)
	}
	return liveRequest{ID: id, Inputs: payload}
}

func TestLivePredictAnswersEachFrame(t *testing.T) {
	installModel(t, &fakeModel{label: 1, proba: []float64{0.2766, 0.7234}})
	conn := dialLive(t, "?lang=en")

	if err := conn.WriteJSON(liveFrame(t, "a", scenarioInputs())); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply liveMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessagePrediction || reply.ID != "a" || reply.Prediction == nil {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Prediction.Message != "⚠️ High heart disease risk (72.34%)" {
		t.Fatalf("unexpected message: %q", reply.Prediction.Message)
	}

	bad := scenarioInputs()
	bad.SleepTime = 7.5
	if err := conn.WriteJSON(liveFrame(t, "b", bad)); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply = liveMessage{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessageError || reply.ID != "b" || reply.Error == nil {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Error.Kind != string(ml.KindOutOfRange) || reply.Error.Field != ml.FieldSleepTime {
		t.Fatalf("unexpected error: %+v", reply.Error)
	}
}

func TestLivePredictMalformedFrame(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})
	conn := dialLive(t, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply liveMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessageError || !strings.HasPrefix(reply.Error.Error, "malformed frame") {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// the connection stays usable after a bad frame
	if err := conn.WriteJSON(liveFrame(t, "", scenarioInputs())); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply = liveMessage{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessagePrediction || reply.Prediction.Lang != "th" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestLivePredictMissingField(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})
	conn := dialLive(t, "")

	fields := scenarioFields(t)
	delete(fields, ml.FieldSleepTime)
	if err := conn.WriteJSON(liveFrame(t, "c", fields)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply liveMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessageError || reply.ID != "c" || reply.Error == nil {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Error.Kind != string(ml.KindMissingField) || reply.Error.Field != ml.FieldSleepTime {
		t.Fatalf("unexpected error: %+v", reply.Error)
	}

	// a frame without inputs is missing every field, not a zero profile
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"d"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply = liveMessage{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != MessageError || reply.Error.Kind != string(ml.KindMissingField) {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
