package futfantasy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fantasyscouter/engine/internal/platform/resilience"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		Token:          "secret-token",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, server
}

func TestClient_FetchTeams(t *testing.T) {
	t.Parallel()

	var gotToken atomic.Value
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams" {
			http.NotFound(w, r)
			return
		}
		gotToken.Store(r.URL.Query().Get("api_token"))
		_, _ = w.Write([]byte(`{"teams":[{"slug":"barcelona","name":"FC Barcelona","id":3,"squad_size":25}]}`))
	}))

	teams, err := client.FetchTeams(context.Background())
	if err != nil {
		t.Fatalf("FetchTeams error: %v", err)
	}
	if len(teams) != 1 {
		t.Fatalf("expected 1 team, got=%d", len(teams))
	}
	if teams[0].Slug != "barcelona" || teams[0].ExternalID != 3 || teams[0].SquadSize != 25 {
		t.Fatalf("unexpected team mapping: %+v", teams[0])
	}
	if got, _ := gotToken.Load().(string); got != "secret-token" {
		t.Fatalf("api_token got=%q want=%q", got, "secret-token")
	}
}

func TestClient_FetchMatches_MalformedScoreBecomesNil(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jornadas":[{"jornada":1,"matches":[
			{"home":"barcelona","away":"valencia","score":"2-1","date":"2025-08-16 19:00","id":"20001"},
			{"home":"real-madrid","away":"athletic","score":"vs","date":"2025-08-17","id":"20002"},
			{"home":"valencia","away":"athletic","score":"","id":"20003"}
		]}]}`))
	}))

	matches, err := client.FetchMatches(context.Background())
	if err != nil {
		t.Fatalf("FetchMatches error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got=%d", len(matches))
	}
	if matches[0].Score == nil || matches[0].Score.String() != "2-1" {
		t.Fatalf("played match score got=%v", matches[0].Score)
	}
	if matches[0].Date.IsZero() {
		t.Fatal("expected parsed kickoff date")
	}
	if matches[1].Score != nil {
		t.Fatalf("malformed score must map to nil, got=%v", matches[1].Score)
	}
	if matches[2].Score != nil {
		t.Fatalf("empty score must map to nil, got=%v", matches[2].Score)
	}
}

func TestClient_FetchPlayers_OverlaysMarketOnSquads(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/squads":
			_, _ = w.Write([]byte(`{"players":[
				{"slug":"pedri","id":9811,"name":"Pedri","team":"barcelona","position":"Centrocampista"},
				{"slug":"hugo-duro","id":12044,"name":"Hugo Duro","team":"valencia"}
			]}`))
		case "/market":
			_, _ = w.Write([]byte(`{"players":[
				{"slug":"pedri","market_value":98000000,"pmr":25500000,"prob_starter":0.92}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	players, err := client.FetchPlayers(context.Background())
	if err != nil {
		t.Fatalf("FetchPlayers error: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got=%d", len(players))
	}
	if players[0].MarketValue != 98000000 || players[0].ProbStarter != 0.92 {
		t.Fatalf("market overlay missing: %+v", players[0])
	}
	if players[0].Position != "Centrocampista" {
		t.Fatalf("bio field lost: %+v", players[0])
	}
	if players[1].MarketValue != 0 {
		t.Fatalf("player absent from market must keep zero value: %+v", players[1])
	}
}

func TestClient_FetchPerformances_EmptyStatusDefaultsProvisional(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"performances":[
			{"player":"pedri","jornada":1,"home":"barcelona","away":"valencia","points":8,"stats":{"goals":1,"minutes":90},"status":"confirmed"},
			{"player":"hugo-duro","jornada":1,"home":"barcelona","away":"valencia","points":2}
		]}`))
	}))

	perfs, err := client.FetchPerformances(context.Background())
	if err != nil {
		t.Fatalf("FetchPerformances error: %v", err)
	}
	if len(perfs) != 2 {
		t.Fatalf("expected 2 performances, got=%d", len(perfs))
	}
	if !perfs[0].Confirmed() {
		t.Fatalf("expected confirmed status, got=%q", perfs[0].Status)
	}
	if goals, ok := perfs[0].Stat("goals"); !ok || goals != 1 {
		t.Fatalf("stats lost in mapping: %+v", perfs[0].Stats)
	}
	if perfs[1].Status != "provisional" {
		t.Fatalf("missing status must default to provisional, got=%q", perfs[1].Status)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"teams":[]}`))
	}))
	client.maxRetries = 1

	if _, err := client.FetchTeams(context.Background()); err != nil {
		t.Fatalf("FetchTeams error after retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got=%d", got)
	}
}

func TestClient_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad token"}`))
	}))
	client.maxRetries = 3

	if _, err := client.FetchTeams(context.Background()); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("client errors must not be retried, got=%d attempts", got)
	}
}

func TestClient_CircuitBreakerRejectsAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchTeams(context.Background()); err == nil {
			t.Fatal("expected feed failure")
		}
	}

	_, err := client.FetchTeams(context.Background())
	if err == nil {
		t.Fatal("expected circuit breaker rejection")
	}
	if got := client.breaker.State(); got != resilience.CircuitStateOpen {
		t.Fatalf("breaker state got=%q want=%q", got, resilience.CircuitStateOpen)
	}
}

func TestParseFeedDate(t *testing.T) {
	t.Parallel()

	if got := parseFeedDate("2025-08-16T19:00:00Z"); got.IsZero() {
		t.Fatal("RFC3339 date must parse")
	}
	if got := parseFeedDate("2025-08-16 19:00"); got.Hour() != 19 {
		t.Fatalf("space-separated date hour got=%d want=19", got.Hour())
	}
	if got := parseFeedDate("2025-08-16"); got.IsZero() {
		t.Fatal("date-only value must parse")
	}
	if got := parseFeedDate("soon"); !got.IsZero() {
		t.Fatalf("unparseable date must be zero, got=%v", got)
	}
}

func TestRedactAPIURL(t *testing.T) {
	t.Parallel()

	redacted := redactAPIURL("https://feed.example/v1/teams?api_token=secret-token&page=2")
	if redacted != "https://feed.example/v1/teams?api_token=***&page=2" {
		t.Fatalf("token not redacted: %s", redacted)
	}
}
