package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/linanwx/askchat/askapi"
	"github.com/linanwx/askchat/chat"
	"github.com/linanwx/askchat/provider"
)

type fakeProvider struct {
	content string
	err     error
	got     []*provider.Request
}

func (f *fakeProvider) Chat(_ context.Context, req *provider.Request) (*provider.Response, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Content: f.content}, nil
}

func newTestServer(t *testing.T, p provider.Provider, cfg Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg, p)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestAskReturnsTrimmedAnswer(t *testing.T) {
	fp := &fakeProvider{content: "\n  Inflation is rising prices.  \n"}
	ts := newTestServer(t, fp, Config{
		PromptTemplate:   "Explain:\n\n%s",
		MaxTokens:        250,
		Temperature:      float64Ptr(0.6),
		TopP:             float64Ptr(0.9),
		FrequencyPenalty: float64Ptr(0.5),
	})

	status, body := post(t, ts.URL+askapi.Path, `{"user_q":"inflation"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	answer, err := askapi.DecodeAnswer([]byte(body))
	if err != nil {
		t.Fatalf("DecodeAnswer() error = %v", err)
	}
	if answer != "Inflation is rising prices." {
		t.Fatalf("answer = %q", answer)
	}

	if len(fp.got) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(fp.got))
	}
	req := fp.got[0]
	if req.Messages[0].Content != "Explain:\n\ninflation" {
		t.Fatalf("prompt = %q", req.Messages[0].Content)
	}
	if req.MaxTokens != 250 || *req.Temperature != 0.6 || *req.TopP != 0.9 || *req.FrequencyPenalty != 0.5 {
		t.Fatalf("generation params = %+v", req)
	}
}

func TestAskPassesZeroTemperature(t *testing.T) {
	fp := &fakeProvider{content: "ok"}
	ts := newTestServer(t, fp, Config{Temperature: float64Ptr(0)})

	post(t, ts.URL+askapi.Path, `{"user_q":"bond"}`)

	if len(fp.got) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(fp.got))
	}
	req := fp.got[0]
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Fatalf("Temperature = %v, want explicit 0", req.Temperature)
	}
	if req.TopP != nil || req.FrequencyPenalty != nil {
		t.Fatalf("unset params were sent: top_p=%v frequency_penalty=%v", req.TopP, req.FrequencyPenalty)
	}
}

func float64Ptr(v float64) *float64 { return &v }

func TestAskProviderErrorBecomesAnswer(t *testing.T) {
	fp := &fakeProvider{err: errors.New("model overloaded")}
	ts := newTestServer(t, fp, Config{})

	status, body := post(t, ts.URL+askapi.Path, `{"user_q":"bonds"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	answer, err := askapi.DecodeAnswer([]byte(body))
	if err != nil {
		t.Fatalf("DecodeAnswer() error = %v", err)
	}
	if answer != "Something went wrong: model overloaded" {
		t.Fatalf("answer = %q", answer)
	}
}

func TestAskRejectsInvalidBody(t *testing.T) {
	fp := &fakeProvider{content: "x"}
	ts := newTestServer(t, fp, Config{})

	for _, body := range []string{``, `{}`, `{"user_q":5}`, `not json`} {
		status, _ := post(t, ts.URL+askapi.Path, body)
		if status != http.StatusUnprocessableEntity {
			t.Errorf("POST %q status = %d, want 422", body, status)
		}
	}
	if len(fp.got) != 0 {
		t.Fatalf("provider called %d times for invalid bodies", len(fp.got))
	}
}

func TestAskCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{}, Config{AllowedOrigins: []string{"http://localhost:5173"}})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+askapi.Path, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestHealthzCountsQuestions(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{content: "ok"}, Config{Provider: "openai", Model: "gpt-4.1-mini"})

	post(t, ts.URL+askapi.Path, `{"user_q":"What is a bond?"}`)
	post(t, ts.URL+askapi.Path, `{"question":"wrong field"}`)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	body := gjson.ParseBytes(data)

	checks := map[string]string{
		"status":             "healthy",
		"model.provider":     "openai",
		"model.model":        "gpt-4.1-mini",
		"questions.answered": "1",
		"questions.failed":   "0",
		"questions.rejected": "1",
	}
	for path, want := range checks {
		if got := body.Get(path).String(); got != want {
			t.Fatalf("healthz %s = %q, want %q (body %s)", path, got, want, data)
		}
	}
}

func TestChatRoundTripAgainstServer(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{content: "Hi there"}, Config{})
	client, err := askapi.NewClient(askapi.ClientConfig{Endpoint: ts.URL + askapi.Path})
	if err != nil {
		t.Fatal(err)
	}

	o := chat.NewOrchestrator(client)
	if !o.Send(context.Background(), "Hello") {
		t.Fatal("Send() = false")
	}
	msgs := o.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() = %+v, want two", msgs)
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Content != "Hello" {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Fatalf("second message = %+v", msgs[1])
	}
	if o.Busy() {
		t.Fatal("Busy() = true after round trip")
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		template, question, want string
	}{
		{"", "q", "q"},
		{"Explain %s please", "bonds", "Explain bonds please"},
		{"Explain this", "bonds", "Explain this\n\nbonds"},
		{"%s and %s", "a", "a and %s"},
	}
	for _, tt := range tests {
		if got := buildPrompt(tt.template, tt.question); got != tt.want {
			t.Errorf("buildPrompt(%q, %q) = %q, want %q", tt.template, tt.question, got, tt.want)
		}
	}
}

func TestQuestionLimiterCap(t *testing.T) {
	l, err := newQuestionLimiter(5)
	if err != nil {
		t.Fatalf("newQuestionLimiter() error = %v", err)
	}

	short, n := l.Cap("hello")
	if short != "hello" || n == 0 || n > 5 {
		t.Fatalf("Cap(hello) = %q, %d", short, n)
	}

	long := strings.Repeat("interest rates rise ", 20)
	capped, n := l.Cap(long)
	if n != 5 {
		t.Fatalf("Cap(long) tokens = %d, want 5", n)
	}
	if len(capped) >= len(long) || !strings.HasPrefix(long, capped) {
		t.Fatalf("Cap(long) = %q, want a prefix of the input", capped)
	}
}
