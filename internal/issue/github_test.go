package issue

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"
)

func newTestGitHub(t *testing.T) *GitHub {
	t.Helper()
	client := &http.Client{}
	gock.InterceptClient(client)
	t.Cleanup(func() {
		gock.RestoreClient(client)
		gock.Off()
	})
	g, err := NewGitHub("acme/rss-monitor", "ghp_test", client)
	if err != nil {
		t.Fatalf("new github: %v", err)
	}
	return g
}

func TestGitHubGet(t *testing.T) {
	g := newTestGitHub(t)

	gock.New(DefaultAPI).
		Get("/repos/acme/rss-monitor/issues/42").
		MatchHeader("Authorization", "^Bearer ghp_test$").
		Reply(200).
		JSON(map[string]any{
			"number": 42,
			"title":  "添加RSS源",
			"body":   "网站名称: 先知社区\nRSS URL: https://xz.aliyun.com/feed",
			"state":  "open",
		})

	got, err := g.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := Issue{
		Number: 42,
		Title:  "添加RSS源",
		Body:   "网站名称: 先知社区\nRSS URL: https://xz.aliyun.com/feed",
		State:  "open",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issue mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHubCommentAndClose(t *testing.T) {
	g := newTestGitHub(t)

	gock.New(DefaultAPI).
		Post("/repos/acme/rss-monitor/issues/7/comments").
		MatchType("json").
		JSON(map[string]string{"body": "done"}).
		Reply(201).
		JSON(map[string]any{"id": 1, "body": "done"})
	gock.New(DefaultAPI).
		Patch("/repos/acme/rss-monitor/issues/7").
		JSON(map[string]string{"state": "closed"}).
		Reply(200).
		JSON(map[string]any{"number": 7, "state": "closed"})

	ctx := context.Background()
	if err := g.Comment(ctx, 7, "done"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := g.Close(ctx, 7); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !gock.IsDone() {
		t.Error("expected every GitHub request to be made")
	}
}

func TestGitHubErrorStatus(t *testing.T) {
	g := newTestGitHub(t)

	gock.New(DefaultAPI).Get("/repos/acme/rss-monitor/issues/1").
		Reply(404).JSON(map[string]any{"message": "Not Found"})
	gock.New(DefaultAPI).Post("/repos/acme/rss-monitor/issues/1/comments").
		Reply(403).JSON(map[string]any{"message": "Resource not accessible by integration"})

	ctx := context.Background()
	if _, err := g.Get(ctx, 1); err == nil {
		t.Error("expected error for status 404")
	}
	if err := g.Comment(ctx, 1, "x"); err == nil {
		t.Error("expected error for status 403")
	}
}

func TestNewGitHubRejectsBadRepository(t *testing.T) {
	for _, repo := range []string{"", "acme", "/rss-monitor", "acme/"} {
		if _, err := NewGitHub(repo, "t", &http.Client{}); err == nil {
			t.Errorf("NewGitHub(%q): expected error", repo)
		}
	}
}

func TestSetBaseURL(t *testing.T) {
	g := newTestGitHub(t)
	if err := g.SetBaseURL("https://ghe.example.com/api/v3/"); err != nil {
		t.Fatalf("set base url: %v", err)
	}

	gock.New("https://ghe.example.com").
		Get("/api/v3/repos/acme/rss-monitor/issues/5").
		Reply(200).
		JSON(map[string]any{"number": 5, "title": "t", "state": "open"})

	got, err := g.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(5, got.Number); diff != "" {
		t.Errorf("number mismatch (-want +got):\n%s", diff)
	}
}
