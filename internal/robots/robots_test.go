package robots

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdilYassar/companies-scrapper/internal/config"
)

const robotsBody = `User-agent: *
Disallow: /private/
`

func robotsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, robotsBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAgentRespectsDisallow(t *testing.T) {
	server := robotsServer(t)
	agent := NewAgent(config.RobotsConfig{Respect: true, UserAgent: "test-bot"}, server.Client())
	ctx := context.Background()

	if !agent.AllowedURL(ctx, server.URL+"/companies") {
		t.Error("allowed path must pass")
	}
	if agent.AllowedURL(ctx, server.URL+"/private/admin") {
		t.Error("disallowed path must be blocked")
	}
}

func TestAgentOverrideBypassesRules(t *testing.T) {
	server := robotsServer(t)
	host := serverHost(t, server.URL)
	agent := NewAgent(config.RobotsConfig{
		Respect:   true,
		UserAgent: "test-bot",
		Overrides: []string{host},
	}, server.Client())

	if !agent.AllowedURL(context.Background(), server.URL+"/private/admin") {
		t.Error("override host must bypass robots rules")
	}
}

func TestAgentDisabledAllowsEverything(t *testing.T) {
	agent := NewAgent(config.RobotsConfig{Respect: false, UserAgent: "test-bot"}, nil)
	if !agent.AllowedURL(context.Background(), "https://example.com/private/") {
		t.Error("disabled agent must allow everything")
	}
}

func TestAgentFailsOpenOnMissingRobots(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	agent := NewAgent(config.RobotsConfig{Respect: true, UserAgent: "test-bot"}, server.Client())
	if !agent.AllowedURL(context.Background(), server.URL+"/anything") {
		t.Error("missing robots.txt must fail open")
	}
}

func TestAgentRejectsRelativeURLs(t *testing.T) {
	agent := NewAgent(config.RobotsConfig{Respect: true, UserAgent: "test-bot"}, nil)
	if agent.AllowedURL(context.Background(), "/relative/path") {
		t.Error("relative URLs cannot be checked and must be rejected")
	}
}

func serverHost(t *testing.T, rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	return req.URL.Hostname()
}
