package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"rss_monitor/internal/config"
	"rss_monitor/internal/issue"
)

type options struct {
	Token  string `long:"token" env:"GITHUB_TOKEN" required:"true" description:"GitHub token allowed to comment on and close issues"`
	Issue  int    `long:"issue" env:"ISSUE_NUMBER" required:"true" description:"Number of the issue to process"`
	Repo   string `long:"repo" env:"GITHUB_REPOSITORY" required:"true" description:"Repository as owner/name"`
	Feeds  string `long:"feeds" env:"FEEDS_PATH" default:"rss.yaml" description:"Feed list file to update"`
	APIURL string `long:"api-url" env:"GITHUB_API_URL" default:"https://api.github.com" description:"GitHub REST endpoint"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gh, err := issue.NewGitHub(opts.Repo, opts.Token, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		log.Error("github client", "error", err)
		os.Exit(1)
	}
	if err := gh.SetBaseURL(opts.APIURL); err != nil {
		log.Error("github client", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, gh, opts.Issue, opts.Feeds, log); err != nil {
		log.Error("add feed from issue", "issue", opts.Issue, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, gh *issue.GitHub, number int, feedsPath string, log *slog.Logger) error {
	is, err := gh.Get(ctx, number)
	if err != nil {
		return err
	}

	sub, err := issue.Parse(is.Title, is.Body)
	if err != nil {
		if cerr := gh.Comment(ctx, number, issue.Usage); cerr != nil {
			log.Warn("post usage comment", "error", cerr)
		}
		if cerr := gh.Close(ctx, number); cerr != nil {
			log.Warn("close issue", "error", cerr)
		}
		return err
	}

	if err := config.AppendFeed(feedsPath, sub.Name, sub.URL); err != nil {
		return err
	}
	log.Info("feed added", "name", sub.Name, "url", sub.URL, "file", feedsPath)

	msg := fmt.Sprintf("✅ 已成功添加RSS源！\n\n网站名称: %s\nRSS URL: %s\n\n该RSS源将从下一次监控开始生效。", sub.Name, sub.URL)
	if err := gh.Comment(ctx, number, msg); err != nil {
		return err
	}
	return gh.Close(ctx, number)
}
