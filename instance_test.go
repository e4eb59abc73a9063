package wisefetch

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubEngine records what Do hands to the engine and replies with a canned
// response, so instance behavior can be asserted without any network I/O.
type stubEngine struct {
	mu       sync.Mutex
	calls    int
	lastURL  string
	lastOpts Options
	resp     *Response
	err      error
}

func (e *stubEngine) Dispatch(_ context.Context, url string, opts Options) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.lastURL = url
	e.lastOpts = opts
	if e.resp != nil {
		return e.resp, e.err
	}
	return &Response{StatusCode: 200, StatusText: "OK", URL: url}, e.err
}

func newStubClient(engine *stubEngine) *Client {
	return New(
		WithEngine(engine),
		WithEnv(func() Env { return Env{} }),
	)
}

func TestCreateChainsDefaults(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	parent, err := client.Create(Options{
		"baseUrl": "https://example.com/api/",
		"headers": Headers{"x-token": "abc", "accept": "text/html"},
		"method":  "GET",
	})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}

	child, err := parent.Create(Options{
		"headers": Headers{"accept": "application/json"},
		"method":  "POST",
	})
	if err != nil {
		t.Fatalf("Expected no error from chained Create, got %v", err)
	}

	if _, err := child.Do(context.Background(), "users"); err != nil {
		t.Fatalf("Expected no error from Do, got %v", err)
	}

	if engine.lastURL != "https://example.com/api/users" {
		t.Errorf("Expected the inherited baseUrl to resolve the URL, got %s", engine.lastURL)
	}
	if engine.lastOpts["method"] != "POST" {
		t.Errorf("Expected the child method to win, got %v", engine.lastOpts["method"])
	}
	headers, ok := engine.lastOpts["headers"].(Headers)
	if !ok {
		t.Fatal("Expected normalized headers on the dispatched options")
	}
	if headers["accept"] != "application/json" {
		t.Errorf("Expected the child accept header to win, got %s", headers["accept"])
	}
	if headers["x-token"] != "abc" {
		t.Errorf("Expected the parent x-token header to survive the merge, got %s", headers["x-token"])
	}
	if _, ok := engine.lastOpts["baseUrl"]; ok {
		t.Error("Expected baseUrl to be stripped before dispatch")
	}
}

func TestCreateDoesNotMutateCallerMaps(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	base := Options{"userAgent": "agent/1.0", "frozenOptions": []string{"method"}}
	fetcher, err := client.Create(base)
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}

	call := Options{"headers": Headers{"accept": "text/plain"}}
	if _, err := fetcher.Do(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("Expected no error from Do, got %v", err)
	}
	if _, err := fetcher.Do(context.Background(), "https://example.com/", call); err != nil {
		t.Fatalf("Expected no error from Do with options, got %v", err)
	}

	if len(base) != 2 {
		t.Errorf("Expected the base map to stay untouched, got %v", base)
	}
	if _, ok := base["headers"]; ok {
		t.Error("Expected no headers key to leak into the base map")
	}
	if len(call) != 1 {
		t.Errorf("Expected the call map to stay untouched, got %v", call)
	}
}

func TestFrozenOptionsRejectPerCallOverrides(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	fetcher, err := client.Create(Options{
		"method":        "POST",
		"frozenOptions": []string{"method"},
	})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}

	_, err = fetcher.Do(context.Background(), "https://example.com/", Options{"method": "GET"})
	if err == nil {
		t.Fatal("Expected an error for a frozen option override")
	}
	expected := "`method` option is not configurable for this instance."
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if code := ErrorCode(err); code != CodeOptionUnconfigurable {
		t.Errorf("Expected code %s, got %s", CodeOptionUnconfigurable, code)
	}
	if engine.calls != 0 {
		t.Errorf("Expected no dispatch after a frozen violation, got %d calls", engine.calls)
	}
}

func TestFrozenOptionsApplyToChainedCreate(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	parent, err := client.Create(Options{"frozenOptions": []string{"redirect"}})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}

	if _, err := parent.Create(Options{"redirect": "manual"}); err == nil {
		t.Error("Expected chained Create to honor the parent's frozen options")
	}
}

func TestUserAgentProjectsIntoHeaders(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	fetcher, err := client.Create(Options{
		"userAgent": "my-app/2.0",
		"headers":   Headers{"user-agent": "inherited/1.0"},
	})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}
	if _, err := fetcher.Do(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("Expected no error from Do, got %v", err)
	}

	headers, _ := engine.lastOpts["headers"].(Headers)
	if headers["user-agent"] != "my-app/2.0" {
		t.Errorf("Expected the userAgent shorthand to win, got %s", headers["user-agent"])
	}
	if _, ok := engine.lastOpts["userAgent"]; ok {
		t.Error("Expected the userAgent shorthand to be removed after projection")
	}
}

func TestURLModifierRunsBeforeResolution(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	fetcher, err := client.Create(Options{
		"baseUrl": "https://example.com/v1/",
		"urlModifier": URLModifier(func(u string) string {
			return u + ".json"
		}),
	})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}
	if _, err := fetcher.Do(context.Background(), "users/1"); err != nil {
		t.Fatalf("Expected no error from Do, got %v", err)
	}

	if engine.lastURL != "https://example.com/v1/users/1.json" {
		t.Errorf("Expected the modifier to run before base resolution, got %s", engine.lastURL)
	}
}

func TestChildReplacesInheritedValidators(t *testing.T) {
	engine := &stubEngine{}
	client := newStubClient(engine)

	parent, err := client.Create(Options{
		"additionalOptionValidators": []OptionValidator{
			func(Options) error { return errors.New("parent validator rejects everything") },
		},
	})
	if err != nil {
		t.Fatalf("Expected no error from Create, got %v", err)
	}
	if _, err := parent.Do(context.Background(), "https://example.com/"); err == nil {
		t.Fatal("Expected the parent validator to reject the request")
	}

	child, err := parent.Create(Options{
		"additionalOptionValidators": []OptionValidator{
			func(Options) error { return nil },
		},
	})
	if err != nil {
		t.Fatalf("Expected no error from chained Create, got %v", err)
	}
	if _, err := child.Do(context.Background(), "https://example.com/"); err != nil {
		t.Errorf("Expected the child validator set to replace the parent's, got %v", err)
	}
}

func TestMergeOptionsShallowMerge(t *testing.T) {
	base := Options{"method": "GET", "timeout": 1000}
	call := Options{"method": "POST"}

	merged := mergeOptions(base, call)

	if merged["method"] != "POST" {
		t.Errorf("Expected the call value to win, got %v", merged["method"])
	}
	if merged["timeout"] != 1000 {
		t.Errorf("Expected the base value to survive, got %v", merged["timeout"])
	}
	if base["method"] != "GET" {
		t.Error("Expected the base map to stay untouched")
	}
}

func TestBaseURLOfAcceptedShapes(t *testing.T) {
	if u := baseURLOf(Options{"baseUrl": "https://example.com/api/"}); u == nil || u.Host != "example.com" {
		t.Errorf("Expected a parsed base URL from a string, got %v", u)
	}
	if u := baseURLOf(Options{}); u != nil {
		t.Errorf("Expected nil without a baseUrl option, got %v", u)
	}
}
