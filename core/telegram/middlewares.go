package telegram

import (
	"github.com/m3rciful/notebot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots. Throttling
// lives in the dispatch table, which knows the route being hit.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.ReceiptMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
