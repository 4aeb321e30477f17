package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/shinych/webmirror/internal/blockid"
	"github.com/shinych/webmirror/internal/ipc"
	"github.com/shinych/webmirror/internal/model"
)

// expandTogglesJS opens collapsed disclosure elements so their content is
// present in the saved document. Best effort; pages without toggles are
// unaffected.
const expandTogglesJS = `
(() => {
	document.querySelectorAll('[aria-expanded="false"]').forEach(el => {
		try { el.click(); } catch (e) {}
	});
	return document.querySelectorAll('[aria-expanded="false"]').length;
})()
`

// Render renders one page and writes the document plus its block-map sidecar
// under the task's save path. It implements pool.Renderer.
func (s *Session) Render(ctx context.Context, task model.DownloadTask) (ipc.ResultData, error) {
	tabCtx, cancel, err := s.navigate(task.URL)
	if err != nil {
		return ipc.ResultData{}, err
	}
	defer cancel()

	var remaining int
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(expandTogglesJS, &remaining)); err != nil {
		s.logger.Debug("toggle expansion failed", "url", task.URL, "error", err)
	}

	var title, html string
	if err := chromedp.Run(tabCtx,
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return ipc.ResultData{}, fmt.Errorf("read document %s: %w", task.URL, err)
	}

	if err := os.MkdirAll(filepath.Dir(task.SavePath), 0750); err != nil {
		return ipc.ResultData{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(task.SavePath, []byte(html), 0600); err != nil {
		return ipc.ResultData{}, fmt.Errorf("save document: %w", err)
	}

	blockMap, err := blockid.Extract(strings.NewReader(html))
	if err != nil {
		s.logger.Warn("block id extraction failed", "url", task.URL, "error", err)
		blockMap = blockid.Map{}
	}
	if err := blockid.SaveSidecar(task.SavePath, blockMap); err != nil {
		// Anchors degrade to the structural fallback for this page.
		s.logger.Warn("sidecar write failed", "path", task.SavePath, "error", err)
	}

	return ipc.ResultData{
		SavePath: task.SavePath,
		Bytes:    int64(len(html)),
		Title:    title,
	}, nil
}
