package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/microdog/wechat-automated-jump-game/internal/core/observability"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestProvider_RegistersStandardCollectors_AndBuildInfo(t *testing.T) {
	p := Init(Config{Enabled: true, Build: BuildInfo{Version: "test", Revision: "r", Branch: "b", BuildDate: "now"}})
	observability.ObserveSolve("found", 0.01)

	body := scrape(t, p)
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go_goroutines in payload; got:\n%s", body)
	}
	if !strings.Contains(body, `jump_build_info{branch="b",build_date="now",revision="r",version="test"} 1`) {
		t.Fatalf("expected jump_build_info in payload; got:\n%s", body)
	}
	if !strings.Contains(body, "solve_results_total") {
		t.Fatalf("expected solver collectors on provider registry; got:\n%s", body)
	}
	if n := strings.Count(body, "_build_info{"); n != 1 {
		t.Fatalf("want exactly one build info series, got %d:\n%s", n, body)
	}
}

func TestProvider_DisabledOmitsSolverCollectors(t *testing.T) {
	p := Init(Config{})
	observability.ObserveSolve("found", 0.01)

	body := scrape(t, p)
	if strings.Contains(body, "solve_results_total") {
		t.Fatalf("solver collectors should not be exposed when disabled:\n%s", body)
	}
	if !strings.Contains(body, `jump_build_info{branch="",build_date="",revision="",version="dev"} 1`) {
		t.Fatalf("expected default build version label; got:\n%s", body)
	}
}
