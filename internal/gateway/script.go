package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Reply is a canned response served ahead of normal routing.
type Reply struct {
	Status int
	Body   string
	// ContentType defaults to text/plain
	ContentType string
}

// Script queues replies. Each incoming request consumes one reply, in order,
// until the queue is empty, after which requests are served normally.
// Scripted replies skip authentication.
func (g *Gateway) Script(replies ...Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = append(g.script, replies...)
}

// Throttle queues n bare 429 replies.
func (g *Gateway) Throttle(n int) {
	replies := make([]Reply, n)
	for i := range replies {
		replies[i] = Reply{Status: http.StatusTooManyRequests, Body: "Too Many Requests"}
	}
	g.Script(replies...)
}

func (g *Gateway) next(path string) (Reply, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hits[path]++
	if len(g.script) == 0 {
		return Reply{}, false
	}
	r := g.script[0]
	g.script = g.script[1:]
	return r, true
}

func (g *Gateway) replay(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, ok := g.next(c.Request().URL.Path)
		if !ok {
			return next(c)
		}
		contentType := r.ContentType
		if contentType == "" {
			contentType = echo.MIMETextPlainCharsetUTF8
		}
		return c.Blob(r.Status, contentType, []byte(r.Body))
	}
}
