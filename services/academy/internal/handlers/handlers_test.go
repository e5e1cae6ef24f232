package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/drone-academy/internal/platform/analytics"
	"github.com/example/drone-academy/internal/platform/auth"
	"github.com/example/drone-academy/internal/platform/httpserver"
	"github.com/example/drone-academy/internal/platform/signing"
	"github.com/example/drone-academy/services/academy/internal/assessment"
	"github.com/example/drone-academy/services/academy/internal/authz"
	"github.com/example/drone-academy/services/academy/internal/catalog"
	"github.com/example/drone-academy/services/academy/internal/course"
	"github.com/example/drone-academy/services/academy/internal/coursecontent"
	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/insights"
	"github.com/example/drone-academy/services/academy/internal/llm"
	"github.com/example/drone-academy/services/academy/internal/progress"
	"github.com/example/drone-academy/services/academy/internal/testimonials"
	"github.com/example/drone-academy/services/academy/internal/watchlist"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!!")

func token(userID, email string) string {
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: email,
		Role:  "authenticated",
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	return signed
}

type transcripts map[string][]format.Segment

func (t transcripts) FetchTranscript(_ context.Context, videoID string) ([]format.Segment, error) {
	return t[videoID], nil
}

type testAPI struct {
	router   http.Handler
	deps     Deps
	progress *progress.Service
}

func newTestAPI(t *testing.T, limiter *RateLimiter) testAPI {
	t.Helper()
	cat := catalog.Default()
	cache := NewTTLCache(time.Minute, nil, "")
	ps := progress.NewService(progress.NewMemoryRepository(), progress.WithInvalidator(cache))
	ts := testimonials.NewService(testimonials.NewMemoryStore())
	as := assessment.NewService(assessment.DefaultCatalog(), assessment.NewMemoryCertificateStore(), signing.New("cert-secret"), &analytics.Recorder{}, nil)

	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"summary":"Know your aircraft."}`)},
		llm.MockResponse{Content: json.RawMessage(`{"questions":[{"question":"Lift comes from?","options":[{"id":"A","text":"Propellers"},{"id":"B","text":"Paint"}],"correctAnswer":"A"}]}`)},
	)
	gen := generation.NewLLMGenerator(provider, nil)
	tr := transcripts{"O-b1_T_1xGs": {{Text: "propellers create lift", Start: 0}}}
	modules := catalog.NewModuleService(cat, nil, nil, nil)
	reg := course.NewRegistry(modules, func() *coursecontent.Controller { return coursecontent.New(tr, gen, nil) }, ps, course.Config{}, nil)
	t.Cleanup(reg.Close)

	az := authz.NewService(authz.NewMemoryRoles(), authz.DefaultAdminEmails, authz.NewMemoryPreferences(), nil)
	d := Deps{
		Catalog:         cat,
		Modules:         modules,
		Progress:        ps,
		CourseCache:     cache,
		Watchlist:       watchlist.NewService(watchlist.NewMemoryStore(), func(id string) bool { _, err := cat.ByID(id); return err == nil }),
		Sessions:        reg,
		Assessments:     as,
		Testimonials:    ts,
		Authz:           az,
		Insights:        insights.NewService(cat, ps, ts, as),
		Verifier:        auth.JWTVerifier{Secret: testSecret},
		GenerationLimit: limiter,
	}
	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	Mount(r, d)
	return testAPI{router: r, deps: d, progress: ps}
}

func (a testAPI) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestPublicCatalog(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodGet, "/v1/courses?level=advanced", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	list := decode[struct {
		Items []catalog.Course `json:"items"`
	}](t, rr)
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 advanced courses, got %d", len(list.Items))
	}

	rr = api.do(t, http.MethodGet, "/v1/courses/drone-fleet-management", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodGet, "/v1/courses/nope", "", nil)
	if rr.Code != http.StatusNotFound || decode[errorBody](t, rr).Error.Code != "COURSE_NOT_FOUND" {
		t.Fatalf("expected COURSE_NOT_FOUND, got %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodGet, "/v1/courses/1/modules", "", nil)
	mods := decode[catalog.Modules](t, rr)
	if rr.Code != http.StatusOK || mods.Source != catalog.SourceDefault || len(mods.Modules) != 3 {
		t.Fatalf("unexpected modules %d %+v", rr.Code, mods)
	}
}

func TestMe_RequiresToken(t *testing.T) {
	api := newTestAPI(t, nil)
	if rr := api.do(t, http.MethodGet, "/v1/me/courses", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, "/v1/me/courses", "garbage", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rr.Code)
	}
}

func TestMyCourses_CacheInvalidatedOnEnroll(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := token("u1", "pilot@academy.test")

	type list struct {
		Items []progress.Record `json:"items"`
	}
	rr := api.do(t, http.MethodGet, "/v1/me/courses", tok, nil)
	if got := decode[list](t, rr); rr.Code != http.StatusOK || len(got.Items) != 0 {
		t.Fatalf("expected empty list, got %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/v1/me/courses/drone-fleet-management", tok, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr = api.do(t, http.MethodPost, "/v1/me/courses/5", tok, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat enroll, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodGet, "/v1/me/courses", tok, nil)
	got := decode[list](t, rr)
	if len(got.Items) != 1 || got.Items[0].CourseID != "5" || got.Items[0].Status != progress.StatusInProgress {
		t.Fatalf("expected enrolled course after invalidation, got %s", rr.Body.String())
	}

	rr = api.do(t, http.MethodPut, "/v1/me/courses/5/progress", tok, map[string]any{"progress": 140, "status": "completed"})
	rec := decode[progress.Record](t, rr)
	if rr.Code != http.StatusOK || rec.Progress != 100 || rec.CompletedAt == nil {
		t.Fatalf("unexpected progress update %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPut, "/v1/me/courses/5/progress", tok, map[string]any{"progress": 10, "status": "paused"})
	if rr.Code != http.StatusBadRequest || decode[errorBody](t, rr).Error.Code != "INVALID_STATUS" {
		t.Fatalf("expected INVALID_STATUS, got %d %s", rr.Code, rr.Body.String())
	}
	if rr = api.do(t, http.MethodGet, "/v1/me/courses?status=paused", tok, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", rr.Code)
	}
}

func TestWatchlistAndReset(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := token("u1", "pilot@academy.test")

	if rr := api.do(t, http.MethodPut, "/v1/me/watchlist/2", tok, nil); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	rr := api.do(t, http.MethodPut, "/v1/me/watchlist/2", tok, nil)
	if rr.Code != http.StatusConflict || decode[errorBody](t, rr).Error.Code != "ALREADY_IN_WATCHLIST" {
		t.Fatalf("expected conflict, got %d %s", rr.Code, rr.Body.String())
	}
	if rr := api.do(t, http.MethodPut, "/v1/me/watchlist/42", tok, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown course, got %d", rr.Code)
	}
	_ = api.do(t, http.MethodPost, "/v1/me/courses/2", tok, nil)

	rr = api.do(t, http.MethodDelete, "/v1/me/data", tok, nil)
	out := decode[map[string]int](t, rr)
	if rr.Code != http.StatusOK || out["watchlistRemoved"] != 1 || out["progressRemoved"] != 1 {
		t.Fatalf("unexpected reset %d %s", rr.Code, rr.Body.String())
	}
	rr = api.do(t, http.MethodGet, "/v1/me/watchlist/2", tok, nil)
	if in := decode[map[string]any](t, rr)["inWatchlist"]; in != false {
		t.Fatalf("expected course removed from watchlist, got %v", in)
	}
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	learner := token("u1", "pilot@academy.test")
	admin := token("a1", "bdteam@flytbase.com")

	rr := api.do(t, http.MethodGet, "/v1/admin/insights", learner, nil)
	if rr.Code != http.StatusForbidden || decode[errorBody](t, rr).Error.Code != "ADMIN_REQUIRED" {
		t.Fatalf("expected ADMIN_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}
	if rr = api.do(t, http.MethodGet, "/v1/admin/insights", admin, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodPost, "/v1/admin/testimonials", admin, map[string]any{
		"name": "Asha", "title": "Survey pilot", "quote": "Loved the mapping course", "rating": 5,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create testimonial: %d %s", rr.Code, rr.Body.String())
	}
	created := decode[testimonials.Testimonial](t, rr)
	if got := decode[map[string][]any](t, api.do(t, http.MethodGet, "/v1/testimonials", "", nil))["items"]; len(got) != 0 {
		t.Fatalf("unpublished testimonial is public: %v", got)
	}
	rr = api.do(t, http.MethodPatch, "/v1/admin/testimonials/"+created.ID+"/published", admin, map[string]any{"is_published": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("publish: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[map[string][]any](t, api.do(t, http.MethodGet, "/v1/testimonials", "", nil))["items"]; len(got) != 1 {
		t.Fatalf("expected one published testimonial, got %v", got)
	}
	rr = api.do(t, http.MethodPost, "/v1/admin/testimonials", admin, map[string]any{"name": "x", "rating": 9})
	if rr.Code != http.StatusBadRequest || decode[errorBody](t, rr).Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodGet, "/v1/me/admin", admin, nil)
	if st := decode[authz.Status](t, rr); !st.IsAdmin || st.ViewAsUser {
		t.Fatalf("unexpected admin status %+v", st)
	}
	if rr = api.do(t, http.MethodPut, "/v1/me/admin/view", learner, map[string]any{"viewAsUser": true}); rr.Code != http.StatusForbidden {
		t.Fatalf("learner switched view: %d", rr.Code)
	}
	if rr = api.do(t, http.MethodPut, "/v1/me/admin/view", admin, map[string]any{"viewAsUser": true}); rr.Code != http.StatusOK {
		t.Fatalf("set view: %d %s", rr.Code, rr.Body.String())
	}
	rr = api.do(t, http.MethodGet, "/v1/admin/insights", admin, nil)
	if rr.Code != http.StatusForbidden || decode[errorBody](t, rr).Error.Code != "VIEWING_AS_USER" {
		t.Fatalf("expected VIEWING_AS_USER, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestSessionFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := token("u1", "pilot@academy.test")

	if rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/quiz/answer", tok, map[string]string{"optionId": "A"}); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 before a module is selected, got %d", rr.Code)
	}
	if rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/modules/9", tok, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown module, got %d", rr.Code)
	}
	if rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/modules/1", tok, nil); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rr.Code, rr.Body.String())
	}

	s, ok := api.deps.Sessions.Lookup("u1", "1")
	if !ok {
		t.Fatal("session not registered")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.WaitContent(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	rr := api.do(t, http.MethodGet, "/v1/me/sessions/1/content", tok, nil)
	view := decode[course.View](t, rr)
	if view.Content.State != coursecontent.StateReady || view.Content.Summary != "Know your aircraft." || view.Quiz == nil {
		t.Fatalf("unexpected view %s", rr.Body.String())
	}

	if rr = api.do(t, http.MethodPost, "/v1/me/sessions/1/quiz/next", tok, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without an answer, got %d", rr.Code)
	}
	if rr = api.do(t, http.MethodPost, "/v1/me/sessions/1/quiz/answer", tok, map[string]string{"optionId": "Z"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown option, got %d", rr.Code)
	}
	if rr = api.do(t, http.MethodPost, "/v1/me/sessions/1/quiz/answer", tok, map[string]string{"optionId": "A"}); rr.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", rr.Code, rr.Body.String())
	}
	rr = api.do(t, http.MethodPost, "/v1/me/sessions/1/quiz/next", tok, nil)
	out := decode[course.Outcome](t, rr)
	if out.Result == nil || out.Result.Score != 100 || out.Progress == nil || out.Progress.Status != progress.StatusCompleted {
		t.Fatalf("unexpected outcome %s", rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/v1/me/sessions/1/next-module", tok, nil)
	if rr.Code != http.StatusAccepted || decode[course.View](t, rr).Active != 2 {
		t.Fatalf("next module: %d %s", rr.Code, rr.Body.String())
	}
}

func TestSessionRateLimited(t *testing.T) {
	api := newTestAPI(t, NewRateLimiter(0, 1))
	tok := token("u1", "pilot@academy.test")

	if rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/modules/1", tok, nil); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/modules/1", tok, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, "/v1/me/sessions/1", tok, nil); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rr.Code)
	}
	other := token("u2", "other@academy.test")
	if rr := api.do(t, http.MethodPost, "/v1/me/sessions/1/modules/1", other, nil); rr.Code != http.StatusAccepted {
		t.Fatalf("limits are per user, got %d", rr.Code)
	}
}

func TestAssessmentsAndCertificates(t *testing.T) {
	api := newTestAPI(t, nil)
	tok := token("u1", "pilot@academy.test")

	rr := api.do(t, http.MethodGet, "/v1/assessments/1", "", nil)
	if rr.Code != http.StatusOK || bytes.Contains(rr.Body.Bytes(), []byte("correctOption")) {
		t.Fatalf("assessment must not leak answers: %s", rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/v1/me/assessments/1/attempts", tok, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rr.Code, rr.Body.String())
	}
	at := decode[assessment.Attempt](t, rr)

	if rr = api.do(t, http.MethodPost, "/v1/me/attempts/"+at.ID+"/certificate", tok, assessment.Holder{FullName: "A", Designation: "Pilot", Email: "a@x.io"}); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 before submit, got %d %s", rr.Code, rr.Body.String())
	}
	for _, a := range []map[string]any{{"questionId": "q1", "option": 0}, {"questionId": "q2", "option": 2}} {
		if rr = api.do(t, http.MethodPost, "/v1/me/attempts/"+at.ID+"/answers", tok, a); rr.Code != http.StatusOK {
			t.Fatalf("answer: %d %s", rr.Code, rr.Body.String())
		}
	}
	if rr = api.do(t, http.MethodPost, "/v1/me/attempts/"+at.ID+"/answers", tok, map[string]any{"questionId": "q1"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without option, got %d", rr.Code)
	}
	rr = api.do(t, http.MethodPost, "/v1/me/attempts/"+at.ID+"/submit", tok, nil)
	if res := decode[assessment.Result](t, rr); rr.Code != http.StatusOK || !res.Passed {
		t.Fatalf("submit: %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/v1/me/attempts/"+at.ID+"/certificate", tok, assessment.Holder{FullName: "Asha Rao", Designation: "Pilot", Email: "asha@x.io"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("certificate: %d %s", rr.Code, rr.Body.String())
	}
	cert := decode[assessment.Certificate](t, rr)

	rr = api.do(t, http.MethodGet, "/v1/certificates/"+cert.ID+"/verify", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature, got %d", rr.Code)
	}
	rr = api.do(t, http.MethodGet, "/v1/certificates/"+cert.ID+"/verify?res="+cert.ID+"&sub=u1&exp=9999999999&sig=deadbeef", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a forged signature, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodGet, "/v1/me/certificates", tok, nil)
	if got := decode[map[string][]assessment.Certificate](t, rr)["items"]; len(got) != 1 || got[0].Code != cert.Code {
		t.Fatalf("unexpected certificates %s", rr.Body.String())
	}
}
