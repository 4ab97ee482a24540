package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name  string `json:"name"`
	Zoom  int    `json:"zoom"`
	Extra string `json:"extra,omitempty"`
}

func TestWriteResponseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/viewport", nil)
	rec := httptest.NewRecorder()

	err := NewFormatter().WriteResponse(rec, req, payload{Name: "overview", Zoom: 4}, map[string]string{"Cache-Control": "no-store"})
	if err != nil {
		t.Fatalf("WriteResponse() unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("Content-Type = %q, expected %q", ct, ContentTypeJSON)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, expected no-store", cc)
	}

	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if got.Name != "overview" || got.Zoom != 4 {
		t.Errorf("body = %+v", got)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/viewport?format=msgpack", nil)
	rec := httptest.NewRecorder()

	err := NewFormatter().WriteResponseWithStatus(rec, req, http.StatusNotFound, payload{Name: "missing", Zoom: 11}, nil)
	if err != nil {
		t.Fatalf("WriteResponseWithStatus() unexpected error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
		t.Errorf("Content-Type = %q, expected %q", ct, ContentTypeMsgPack)
	}

	// Keys follow the json tags
	var got map[string]interface{}
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid msgpack body: %v", err)
	}
	if got["name"] != "missing" {
		t.Errorf("name = %v, expected missing", got["name"])
	}
	if _, ok := got["extra"]; ok {
		t.Error("omitempty field was encoded")
	}
}
