package participants_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/bootstrap"
	"tat-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		TotalImages:     2,
		MinStoryChars:   10,
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var decoded map[string]any
	if len(resp.Body.Bytes()) > 0 {
		if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("unmarshal response %q: %v", resp.Body.String(), err)
		}
	}
	return resp, decoded
}

func TestRegisterCreatesParticipantAndSession(t *testing.T) {
	router := buildTestApp(t)

	resp, body := doJSON(t, router, http.MethodPost, "/api/v1/participants", map[string]any{
		"age":          28,
		"gender":       "female",
		"consentGiven": true,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
	participantCode, _ := body["participantCode"].(string)
	sessionCode, _ := body["sessionCode"].(string)
	if len(participantCode) != len("TAT_AB12CD34") {
		t.Fatalf("participantCode = %q", participantCode)
	}
	if len(sessionCode) != len("SESSION_AB12CD34EF56") {
		t.Fatalf("sessionCode = %q", sessionCode)
	}
	if body["status"] != "created" || body["totalImageCount"] != float64(2) {
		t.Fatalf("body = %v", body)
	}

	getResp, getBody := doJSON(t, router, http.MethodGet, "/api/v1/participants/"+participantCode, nil)
	if getResp.Code != http.StatusOK {
		t.Fatalf("get participant status = %d", getResp.Code)
	}
	if getBody["gender"] != "female" || getBody["consentGiven"] != true {
		t.Fatalf("get body = %v", getBody)
	}
}

func TestRegisterWithoutConsentRejected(t *testing.T) {
	router := buildTestApp(t)

	resp, body := doJSON(t, router, http.MethodPost, "/api/v1/participants", map[string]any{
		"age":          28,
		"consentGiven": false,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "validation_error" {
		t.Fatalf("error = %v", body)
	}
}

func TestResumeRestoresProgress(t *testing.T) {
	router := buildTestApp(t)

	_, regBody := doJSON(t, router, http.MethodPost, "/api/v1/participants", map[string]any{"consentGiven": true})
	participantCode := regBody["participantCode"].(string)
	sessionCode := regBody["sessionCode"].(string)

	if resp, _ := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+sessionCode+"/start", nil); resp.Code != http.StatusOK {
		t.Fatalf("start status = %d", resp.Code)
	}
	if resp, _ := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+sessionCode+"/responses", map[string]any{
		"imageIndex":   0,
		"storyText":    "a story long enough to be accepted",
		"responseTime": 11.5,
	}); resp.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.Code)
	}

	resp, body := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/participants/%s/resume", participantCode), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("resume status = %d body = %s", resp.Code, resp.Body.String())
	}
	if body["sessionCode"] != sessionCode {
		t.Fatalf("resume returned %v, want %s", body["sessionCode"], sessionCode)
	}
	if body["currentImageIndex"] != float64(1) {
		t.Fatalf("resume lost progress: %v", body)
	}
}

func TestResumeUnknownParticipant(t *testing.T) {
	router := buildTestApp(t)
	resp, _ := doJSON(t, router, http.MethodPost, "/api/v1/participants/TAT_DEADBEEF/resume", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
}
