package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/shinych/webmirror/internal/discover"
)

// linksJS collects every anchor's absolute URL in document order, skipping
// pseudo-links that can never become pages.
const linksJS = `
(() => {
	return Array.from(document.querySelectorAll('a'))
		.map(a => a.href)
		.filter(href =>
			href &&
			!href.startsWith('javascript:') &&
			!href.startsWith('mailto:') &&
			!href.startsWith('tel:'));
})()
`

// Probe renders a page far enough to read its title and outbound links.
// It implements discover.Prober.
func (s *Session) Probe(ctx context.Context, url string) (discover.ProbeResult, error) {
	tabCtx, cancel, err := s.navigate(url)
	if err != nil {
		return discover.ProbeResult{}, err
	}
	defer cancel()

	var res discover.ProbeResult
	if err := chromedp.Run(tabCtx, chromedp.Title(&res.Title)); err != nil {
		// A missing title is not fatal; the node keeps its URL-derived
		// segment.
		s.logger.Warn("title read failed", "url", url, "error", err)
	}
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(linksJS, &res.OutboundLinks)); err != nil {
		return discover.ProbeResult{}, fmt.Errorf("extract links from %s: %w", url, err)
	}
	return res, nil
}
