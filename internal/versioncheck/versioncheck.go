package versioncheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/kdudkov/maplayers/internal/cache"
	"github.com/kdudkov/maplayers/pkg/request"
)

const maxBody = 1024

type Result struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
	Newer   bool   `json:"newer"`
}

// Checker reads the latest released version from a static text file.
type Checker struct {
	client  *http.Client
	current *version.Version
	cache   *cache.Cache[*version.Version]
	logger  *slog.Logger
}

func New(current string, ttl, timeout time.Duration) (*Checker, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("invalid version format: %w", err)
	}

	c := &Checker{
		client:  &http.Client{Timeout: timeout},
		current: cur,
		logger:  slog.Default().With(slog.String("logger", "version_check")),
	}

	c.cache = cache.NewWithTTL[*version.Version](ttl, c.fetch)

	return c, nil
}

func (c *Checker) Check(ctx context.Context, url string) (*Result, error) {
	latest, err := c.cache.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	return &Result{
		Current: c.current.Original(),
		Latest:  latest.Original(),
		Newer:   c.current.LessThan(latest),
	}, nil
}

func (c *Checker) fetch(ctx context.Context, url string) (*version.Version, error) {
	s, err := request.New(c.client, c.logger).
		URL(url).
		Headers(map[string]string{"Accept": "text/plain"}).
		Text(ctx, maxBody)
	if err != nil {
		return nil, err
	}

	v, err := version.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid latest version format: %w", err)
	}

	return v, nil
}
