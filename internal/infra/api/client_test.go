package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"car-deal-negotiator/internal/config"
	derror "car-deal-negotiator/internal/error"
)

func testClient(t *testing.T, baseURL string, mock bool) *Client {
	t.Helper()
	logger := zerolog.Nop()
	c, err := NewClient(config.APIConfig{BaseURL: baseURL, MockMode: mock, Timeout: 5 * time.Second}, &logger)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestCreateSessionRequestShape(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id":    "sess-1",
			"status":        "active",
			"current_round": 1,
			"agent_message": "hello",
			"metadata":      map[string]any{"suggested_price": 24500, "asking_price": 25000},
		})
	}))
	defer ts.Close()

	res, err := testClient(t, ts.URL, false).CreateSession(context.Background(), "deal-001", 23000, "balanced")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if gotPath != "/api/v1/negotiations/" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if gotBody["deal_id"] != "deal-001" || gotBody["user_target_price"] != 23000.0 {
		t.Fatalf("body = %v", gotBody)
	}
	if res.SessionID != "sess-1" || res.CurrentRound != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.AgentMessage.ID != "sess-1:r1:agent" || res.AgentMessage.Role != "agent" {
		t.Fatalf("agent message = %+v", res.AgentMessage)
	}
	if v, ok := res.AgentMessage.Metadata.OfferPrice(); !ok || v != 24500 {
		t.Fatalf("metadata price = %v %v", v, ok)
	}
}

func TestErrorBodyShapes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "detail string",
			status: 404,
			body:   `{"detail": "negotiation session not found"}`,
			check: func(t *testing.T, err error) {
				ae, ok := derror.AsAPIError(err)
				if !ok || ae.StatusCode != 404 || ae.Message != "negotiation session not found" {
					t.Fatalf("err = %v", err)
				}
			},
		},
		{
			name:   "fastapi detail array",
			status: 422,
			body:   `{"detail": [{"msg": "Price required"}, {"msg": "Term required"}]}`,
			check: func(t *testing.T, err error) {
				ve, ok := derror.AsValidationError(err)
				if !ok {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if ve.Message != "Price required; Term required" {
					t.Fatalf("message = %q", ve.Message)
				}
			},
		},
		{
			name:   "message field",
			status: 403,
			body:   `{"message": "account locked"}`,
			check: func(t *testing.T, err error) {
				ae, _ := derror.AsAPIError(err)
				if ae == nil || ae.Message != "account locked" {
					t.Fatalf("err = %v", err)
				}
			},
		},
		{
			name:   "non-json body falls back to status text",
			status: 500,
			body:   `<html>upstream exploded</html>`,
			check: func(t *testing.T, err error) {
				ae, _ := derror.AsAPIError(err)
				if ae == nil || ae.Message != http.StatusText(500) {
					t.Fatalf("err = %v", err)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			_, err := testClient(t, ts.URL, false).FetchSession(context.Background(), "sess-x")
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
		})
	}
}

func TestTransportFailureBecomesNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // nothing is listening anymore

	_, err := testClient(t, ts.URL, false).FetchSession(context.Background(), "sess-x")
	if !derror.IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestMockModeRewritesDispatchPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/mock/negotiations/sess-1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"session_id": "sess-1", "status": "active"})
	}))
	defer ts.Close()

	sess, err := testClient(t, ts.URL, true).FetchSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("mock-mode fetch: %v", err)
	}
	if sess.SessionID != "sess-1" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestLenderRecommendationsQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("loan_term_months") != "48" || q.Get("credit_score_range") != "good" {
			t.Errorf("query = %v", q)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"recommendations": []map[string]any{
				{"loan_amount": 20000, "monthly_payment_estimate": 470.5, "loan_term_months": 48},
				{"loan_amount": 20000}, // invalid, still returned raw by the client
			},
		})
	}))
	defer ts.Close()

	recs, err := testClient(t, ts.URL, false).LenderRecommendations(context.Background(), "sess-1", 48, "good")
	if err != nil {
		t.Fatalf("lender recommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations", len(recs))
	}
	if !recs[0].Valid() || recs[1].Valid() {
		t.Fatal("validity flags wrong")
	}
}
