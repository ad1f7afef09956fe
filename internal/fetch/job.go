package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// MinJobTextLength is the shortest extracted text accepted as a job posting.
const MinJobTextLength = 40

// JobText fetches a job posting and returns its main text, using selectors
// for the detected platform. When opts.Render is set and the static page
// yields little text, the page is rendered and extracted again; a failed
// render keeps the static text.
func JobText(ctx context.Context, urlStr string, opts *Options) (string, error) {
	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return "", err
	}

	platform := DetectPlatform(urlStr)
	contentSelectors := PlatformContentSelectors(platform)
	noiseSelectors := PlatformNoiseSelectors(platform)

	text, err := ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
	}

	if opts != nil && opts.Render != nil && ShouldUseBrowser(text) {
		log := zerolog.Ctx(ctx)
		log.Debug().Int("chars", len(text)).Msg("static text too short, rendering page")
		if html, renderErr := opts.Render(ctx, urlStr); renderErr != nil {
			log.Warn().Err(renderErr).Str("url", urlStr).Msg("browser rendering failed, using static page")
		} else if rendered, extractErr := ExtractMainText(html, contentSelectors, noiseSelectors...); extractErr == nil {
			text = rendered
		}
	}

	if len(strings.TrimSpace(text)) < MinJobTextLength {
		return "", &Error{URL: urlStr, Message: fmt.Sprintf("extracted text too short (%d chars)", len(text))}
	}
	return text, nil
}

// JobCache memoizes JobText per URL for a fixed TTL. Concurrent requests for
// the same URL share one fetch; the shared fetch is not tied to any single
// caller's context, and each caller stops waiting when its own context ends.
type JobCache struct {
	ttl     time.Duration
	timeout time.Duration
	opts    *Options
	fetch   func(ctx context.Context, urlStr string, opts *Options) (string, error)
	now     func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	text    string
	expires time.Time
}

// NewJobCache creates a cache. A ttl of zero disables caching but keeps
// request coalescing.
func NewJobCache(ttl time.Duration, opts *Options) *JobCache {
	return &JobCache{
		ttl:     ttl,
		timeout: sharedFetchTimeout(opts),
		opts:    opts,
		fetch:   JobText,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// sharedFetchTimeout bounds a coalesced fetch: one HTTP request plus, when
// enabled, one browser render.
func sharedFetchTimeout(opts *Options) time.Duration {
	if opts == nil {
		return DefaultTimeout
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if opts.Render != nil {
		timeout += DefaultBrowserTimeout
	}
	return timeout
}

// JobText returns the cached text for urlStr or fetches it.
func (c *JobCache) JobText(ctx context.Context, urlStr string) (string, error) {
	if text, ok := c.lookup(urlStr); ok {
		return text, nil
	}

	ch := c.group.DoChan(urlStr, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		text, err := c.fetch(fetchCtx, urlStr, c.opts)
		if err != nil {
			return "", err
		}
		c.store(urlStr, text)
		return text, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *JobCache) lookup(urlStr string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[urlStr]
	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		delete(c.entries, urlStr)
		return "", false
	}
	return e.text, true
}

func (c *JobCache) store(urlStr, text string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[urlStr] = cacheEntry{text: text, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
