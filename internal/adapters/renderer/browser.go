package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/okian/pugbot/pkg/logger"
)

const defaultSettle = 1500 * time.Millisecond

// Browser renders pages in headless Chrome tabs. One browser process is
// shared; each pooled session is a tab.
type Browser struct {
	poolSize int
	execPath string
	settle   time.Duration
	logger   logger.Logger

	browserCtx    context.Context //nolint:containedctx // chromedp tabs derive from the browser context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	pool          *Pool
}

// NewBrowser starts Chrome and returns a fetcher backed by a tab pool.
func NewBrowser(ctx context.Context, opts ...BrowserOption) (*Browser, error) {
	b := &Browser{
		poolSize: defaultPoolSize,
		settle:   defaultSettle,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if b.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.execPath))
	}

	// The browser outlives any single request, so it is not derived from ctx.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithErrorf(b.errorf))

	start := time.Now()
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	b.logger.Info(ctx, "headless browser started",
		logger.Int("pool_size", b.poolSize),
		logger.Duration("startup", time.Since(start)),
	)

	b.browserCtx = browserCtx
	b.cancelAlloc = cancelAlloc
	b.cancelBrowser = cancelBrowser
	b.pool = NewPool(b.newTab, WithSize(b.poolSize), WithLogger(b.logger))
	return b, nil
}

// Fetch renders url and returns the page HTML.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	return b.pool.Fetch(ctx, url)
}

// Pool exposes the tab pool for stats.
func (b *Browser) Pool() *Pool {
	return b.pool
}

// Close closes every tab and stops Chrome.
func (b *Browser) Close() error {
	err := b.pool.Close()
	b.cancelBrowser()
	b.cancelAlloc()
	return err
}

func (b *Browser) newTab(_ context.Context) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &tab{ctx: tabCtx, cancel: cancel, settle: b.settle}, nil
}

func (b *Browser) errorf(format string, args ...interface{}) {
	b.logger.Debug(context.Background(), "chromedp", logger.String("detail", fmt.Sprintf(format, args...)))
}

type tab struct {
	ctx    context.Context //nolint:containedctx // chromedp addresses a tab by its context
	cancel context.CancelFunc
	settle time.Duration
}

// Fetch navigates the tab. Cancelling ctx aborts the navigation but keeps the tab.
func (t *tab) Fetch(ctx context.Context, url string) (string, error) {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(t.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

func (t *tab) Close() error {
	t.cancel()
	return nil
}
