// internal/browser/context_utils.go
package browser

import "context"

// CombineContext returns a context derived from sessionCtx that is also canceled
// when opCtx is. Values come from sessionCtx, which carries the chromedp target;
// opCtx carries the caller's cancellation.
func CombineContext(sessionCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(sessionCtx)

	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
