package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"autopress/internal/config"
	"autopress/internal/core"
	"autopress/internal/wordpress"
)

// stubCMS is a configurable fake WordPress REST API.
type stubCMS struct {
	mux *http.ServeMux

	createCalls    int
	createPayloads []map[string]any
	updateCalls    int
	metaEndpoint   bool // POST /posts/{id}/meta accepted
	bulkUpdate     bool // PUT /posts/{id} accepted
	customRoute    bool // wp-meta plugin route exists
	ajaxSuccess    bool
	verifiedMeta   bool // GET returns a _yoast key
	rejectFirst    string // error body for the first create, "" for none
	rejectStatus   int
	rejectAlways   bool   // reject every create, not just the first
}

func newStubCMS() *stubCMS {
	s := &stubCMS{bulkUpdate: true, verifiedMeta: true}
	s.mux = http.NewServeMux()

	s.mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		s.createCalls++
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		s.createPayloads = append(s.createPayloads, payload)

		if s.rejectFirst != "" && (s.rejectAlways || s.createCalls == 1) {
			w.WriteHeader(s.rejectStatus)
			_, _ = w.Write([]byte(s.rejectFirst))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 101}`))
	})

	s.mux.HandleFunc("PUT /wp-json/wp/v2/posts/101", func(w http.ResponseWriter, r *http.Request) {
		s.updateCalls++
		if !s.bulkUpdate {
			http.Error(w, "meta rejected", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"id": 101}`))
	})

	s.mux.HandleFunc("GET /wp-json/wp/v2/posts/101", func(w http.ResponseWriter, r *http.Request) {
		if s.verifiedMeta {
			_, _ = w.Write([]byte(`{"id": 101, "meta": {"_yoast_wpseo_metadesc": "d"}}`))
		} else {
			_, _ = w.Write([]byte(`{"id": 101, "meta": {}}`))
		}
	})

	s.mux.HandleFunc("POST /wp-json/wp/v2/posts/101/meta", func(w http.ResponseWriter, r *http.Request) {
		if !s.metaEndpoint {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	s.mux.HandleFunc("/wp-json/wp-meta/v1/update", func(w http.ResponseWriter, r *http.Request) {
		if !s.customRoute {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	})

	s.mux.HandleFunc("/wp-admin/admin-ajax.php", func(w http.ResponseWriter, r *http.Request) {
		if s.ajaxSuccess {
			_, _ = w.Write([]byte(`{"success": true}`))
		} else {
			_, _ = w.Write([]byte(`0`))
		}
	})

	s.mux.HandleFunc("/wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 44, "name": "Created", "slug": "created"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	s.mux.HandleFunc("/wp-json/wp/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 9, "name": "go"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	return s
}

func newTestPublisher(t *testing.T, s *stubCMS, policy CategoryConflictPolicy, onConflict ConflictFunc) (*Publisher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(s.mux)
	t.Cleanup(server.Close)

	wp, err := wordpress.NewClient(config.WordPress{URL: server.URL, Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	p, err := New(wp, policy, 2, onConflict)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return p, server
}

func testPost() (core.AssembledPost, core.MetaContent) {
	post := core.AssembledPost{Title: "A Post", HTML: "<article><p>body</p></article>"}
	mc := core.MetaContent{MetaDescription: "A description.", Keyphrases: []string{"a post"}}
	return post, mc
}

func TestPublishBulkStrategy(t *testing.T) {
	s := newStubCMS()
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}

	if result.PostID != 101 {
		t.Errorf("PostID = %d", result.PostID)
	}
	if result.MetaStrategy != "bulk-update" {
		t.Errorf("MetaStrategy = %q", result.MetaStrategy)
	}
	if !result.Verified {
		t.Error("metadata should verify")
	}
	if result.Escalation != nil {
		t.Error("no escalation expected on success")
	}
	// The chain short-circuits: one bulk update, nothing after it.
	if s.updateCalls != 1 {
		t.Errorf("updateCalls = %d, expected 1", s.updateCalls)
	}

	payload := s.createPayloads[0]
	if payload["status"] != "draft" {
		t.Errorf("status = %v", payload["status"])
	}
	if _, ok := payload["meta"]; !ok {
		t.Error("create payload should carry the meta fields")
	}
}

func TestPublishFallsBackToMetaEndpoint(t *testing.T) {
	s := newStubCMS()
	s.bulkUpdate = false // bulk and per-field strategies both fail
	s.metaEndpoint = true
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}

	if result.MetaStrategy != "meta-endpoint" {
		t.Errorf("MetaStrategy = %q", result.MetaStrategy)
	}
	if !result.Verified {
		t.Error("metadata should verify through the meta endpoint")
	}
}

func TestPublishEscalatesWhenChainExhausted(t *testing.T) {
	s := newStubCMS()
	s.bulkUpdate = false
	s.metaEndpoint = false
	s.customRoute = false
	s.ajaxSuccess = false
	s.verifiedMeta = false
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}

	if result.Verified {
		t.Error("nothing should verify")
	}
	if result.Escalation == nil {
		t.Fatal("expected an escalation artifact")
	}

	rendered := result.Escalation.Render()
	if !strings.Contains(rendered, "INSERT INTO wp_postmeta") {
		t.Error("escalation is missing the SQL option")
	}
	if !strings.Contains(rendered, "update_post_meta(101,") {
		t.Error("escalation is missing the PHP option")
	}
	if !strings.Contains(rendered, "A description.") {
		t.Error("escalation is missing the meta description")
	}
	if result.Escalation.RunID == "" {
		t.Error("escalation has no run ID")
	}
}

func TestPublishSkipMeta(t *testing.T) {
	s := newStubCMS()
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{
		Target:   core.PostTarget{CategoryID: 5, Status: "draft"},
		SkipMeta: true,
	})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}

	if s.updateCalls != 0 {
		t.Errorf("updateCalls = %d, expected no metadata writes", s.updateCalls)
	}
	if result.Escalation != nil {
		t.Error("skip-meta runs never escalate")
	}
	if _, ok := s.createPayloads[0]["meta"]; ok {
		t.Error("create payload should not carry meta fields")
	}
}

func TestPublishCategoryPolicies(t *testing.T) {
	t.Run("abort", func(t *testing.T) {
		p, _ := newTestPublisher(t, newStubCMS(), PolicyAbort, nil)
		post, mc := testPost()

		_, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryName: "Missing", Status: "draft"}})
		if !errors.Is(err, ErrAborted) {
			t.Errorf("Publish() error = %v, expected ErrAborted", err)
		}
	})

	t.Run("auto-create", func(t *testing.T) {
		s := newStubCMS()
		p, _ := newTestPublisher(t, s, PolicyAutoCreate, nil)
		post, mc := testPost()

		result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryName: "Missing", Status: "draft"}})
		if err != nil {
			t.Fatalf("Publish() returned error: %v", err)
		}
		if result.PostID != 101 {
			t.Errorf("PostID = %d", result.PostID)
		}

		categories, ok := s.createPayloads[0]["categories"].([]any)
		if !ok || len(categories) != 1 || categories[0] != float64(44) {
			t.Errorf("categories = %v, expected the created category", s.createPayloads[0]["categories"])
		}
	})

	t.Run("use-default", func(t *testing.T) {
		s := newStubCMS()
		p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
		post, mc := testPost()

		if _, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryName: "Missing", Status: "draft"}}); err != nil {
			t.Fatalf("Publish() returned error: %v", err)
		}

		categories, ok := s.createPayloads[0]["categories"].([]any)
		if !ok || len(categories) != 1 || categories[0] != float64(2) {
			t.Errorf("categories = %v, expected the default category", s.createPayloads[0]["categories"])
		}
	})

	t.Run("callback skip", func(t *testing.T) {
		s := newStubCMS()
		var askedFor string
		cb := func(name string) ConflictOutcome {
			askedFor = name
			return OutcomeSkipCategory
		}
		p, _ := newTestPublisher(t, s, PolicyCallback, cb)
		post, mc := testPost()

		if _, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryName: "Missing", Status: "draft"}}); err != nil {
			t.Fatalf("Publish() returned error: %v", err)
		}

		if askedFor != "Missing" {
			t.Errorf("callback asked about %q", askedFor)
		}
		if _, ok := s.createPayloads[0]["categories"]; ok {
			t.Error("skip outcome should publish without categories")
		}
	})
}

func TestPublishRetriesWithoutCategoriesOnTermError(t *testing.T) {
	s := newStubCMS()
	s.rejectFirst = `{"code": "rest_invalid_param", "message": "Invalid term ID"}`
	s.rejectStatus = http.StatusBadRequest
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}
	if result.PostID != 101 {
		t.Errorf("PostID = %d", result.PostID)
	}

	if s.createCalls != 2 {
		t.Fatalf("createCalls = %d, expected a single retry", s.createCalls)
	}
	if _, ok := s.createPayloads[0]["categories"]; !ok {
		t.Error("first attempt should carry categories")
	}
	if _, ok := s.createPayloads[1]["categories"]; ok {
		t.Error("retry should drop categories")
	}
}

func TestPublishRetriesWithBasicAuthOnRejection(t *testing.T) {
	s := newStubCMS()
	s.rejectFirst = `{"code": "rest_cannot_create", "message": "Sorry, you are not allowed"}`
	s.rejectStatus = http.StatusForbidden
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	result, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}
	if result.PostID != 101 {
		t.Errorf("PostID = %d", result.PostID)
	}
	if s.createCalls != 2 {
		t.Errorf("createCalls = %d, expected one basic auth retry", s.createCalls)
	}
}

func TestPublishStopsAfterFailedBasicAuthRetry(t *testing.T) {
	s := newStubCMS()
	s.rejectFirst = `{"code": "rest_cannot_create", "message": "Sorry, you are not allowed"}`
	s.rejectStatus = http.StatusForbidden
	s.rejectAlways = true
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	_, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Status: "draft"}})
	if err == nil {
		t.Fatal("Publish() should fail when the basic auth retry is also rejected")
	}
	if s.createCalls != 2 {
		t.Errorf("createCalls = %d, expected no submissions beyond the single retry", s.createCalls)
	}
}

func TestPublishResolvesTags(t *testing.T) {
	s := newStubCMS()
	p, _ := newTestPublisher(t, s, PolicyUseDefault, nil)
	post, mc := testPost()

	if _, err := p.Publish(context.Background(), post, mc, Options{Target: core.PostTarget{CategoryID: 5, Tags: []string{"go"}, Status: "draft"}}); err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}

	tags, ok := s.createPayloads[0]["tags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != float64(9) {
		t.Errorf("tags = %v, expected the created tag", s.createPayloads[0]["tags"])
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		input    string
		expected CategoryConflictPolicy
		wantErr  bool
	}{
		{"auto-create", PolicyAutoCreate, false},
		{"use-default", PolicyUseDefault, false},
		{"abort", PolicyAbort, false},
		{"callback", PolicyCallback, false},
		{"", PolicyUseDefault, false},
		{"prompt", "", true},
	}

	for _, tc := range testCases {
		got, err := ParsePolicy(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v", tc.input, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParsePolicy(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestNewRequiresCallback(t *testing.T) {
	if _, err := New(nil, PolicyCallback, 1, nil); err == nil {
		t.Error("New() should reject PolicyCallback without a callback")
	}
}

func TestCoreFieldKeysLimitedToCriticalFields(t *testing.T) {
	fields := map[string]any{
		"_yoast_wpseo_title":               "Title %%sep%% %%sitename%%",
		"_yoast_wpseo_metadesc":            "A description.",
		"_yoast_wpseo_focuskw":             "keyword",
		"_yoast_wpseo_wordproof_timestamp": "",
	}

	got := coreFieldKeys(fields)

	want := []string{"_yoast_wpseo_metadesc", "_yoast_wpseo_title"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("coreFieldKeys = %v, expected only the description and title keys in order", got)
	}
}
