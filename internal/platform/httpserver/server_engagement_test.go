package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	engagementledger "agora/contexts/civic-engagement/engagement-ledger"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	notificationservice "agora/contexts/civic-engagement/notification-service"
)

func intPtr(v int) *int { return &v }

func newTestServer(seed ...entities.Entity) *Server {
	ledger := engagementledger.NewInMemoryModule(seed, nil)
	notifications := notificationservice.NewInMemoryModule(nil)
	return New(ledger, notifications, nil, ":0")
}

func seedTestPetition(goal int) entities.Entity {
	return entities.Entity{
		EntityID:    "petition-1",
		Kind:        entities.EntityKindPetition,
		Title:       "More bike lanes",
		Description: "Dedicated bike lanes on arterial roads",
		AuthorID:    "actor-author",
		Status:      entities.EntityStatusActive,
		Goal:        intPtr(goal),
		Version:     1,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

func seedTestIssue() entities.Entity {
	return entities.Entity{
		EntityID:    "issue-1",
		Kind:        entities.EntityKindIssue,
		Title:       "Pothole on Main Street",
		Description: "Deep pothole near the crosswalk",
		AuthorID:    "actor-author",
		Status:      entities.EntityStatusOpen,
		Version:     1,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

func TestCreateEntityRequiresUser(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"kind":"issue","title":"Broken light","description":"Out on 5th"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/entities", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateEntityRejectsUnknownKind(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"kind":"poll","title":"A poll","description":"Not supported"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/entities", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUpvoteShortcutRecordsVote(t *testing.T) {
	server := newTestServer(seedTestIssue())
	req := httptest.NewRequest(http.MethodPost, "/api/entities/issue-1/upvote", nil)
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Counts struct {
			Upvotes int `json:"upvotes"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Counts.Upvotes != 1 {
		t.Fatalf("expected 1 upvote, got %d", resp.Counts.Upvotes)
	}
}

func TestDuplicateUpvoteConflicts(t *testing.T) {
	server := newTestServer(seedTestIssue())
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/entities/issue-1/upvote", nil)
		req.Header.Set("X-User-Id", "actor-1")
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if i == 0 && rr.Code != http.StatusOK {
			t.Fatalf("first upvote expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		if i == 1 && rr.Code != http.StatusConflict {
			t.Fatalf("second upvote expected 409, got %d body=%s", rr.Code, rr.Body.String())
		}
	}
}

func TestLikeOnPetitionRejected(t *testing.T) {
	server := newTestServer(seedTestPetition(10))
	req := httptest.NewRequest(http.MethodPost, "/api/entities/petition-1/like", nil)
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSignReachesGoalAndReportsTransition(t *testing.T) {
	server := newTestServer(seedTestPetition(1))
	req := httptest.NewRequest(http.MethodPost, "/api/entities/petition-1/sign", nil)
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Entity struct {
			Status string `json:"status"`
		} `json:"entity"`
		ThresholdCrossed bool `json:"threshold_crossed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.ThresholdCrossed {
		t.Fatalf("expected threshold crossed, body=%s", rr.Body.String())
	}
	if resp.Entity.Status != "achieved" {
		t.Fatalf("expected achieved petition, got %s", resp.Entity.Status)
	}
}

func TestRetractEngagementNotFound(t *testing.T) {
	server := newTestServer(seedTestIssue())
	req := httptest.NewRequest(http.MethodDelete, "/api/entities/issue-1/engagement/vote", nil)
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCountsForUnknownEntity(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/entities/missing/counts", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRecordEngagementRejectsInvalidJSON(t *testing.T) {
	server := newTestServer(seedTestIssue())
	req := httptest.NewRequest(http.MethodPost, "/api/entities/issue-1/engagement", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "actor-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
