// gin backed tab.Writer used by the long-poll handler of Tabcast.

package longpoll

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// pollWriter writes a completed poll into the gin response. The handler
// goroutine blocks on done until End is called or the poll is abandoned.
type pollWriter struct {
	gctx *gin.Context
	once sync.Once
	done chan struct{}

	// read only after done is closed
	wrote bool
	err   error
}

func newPollWriter(gctx *gin.Context) *pollWriter {
	return &pollWriter{gctx: gctx, done: make(chan struct{})}
}

func (w *pollWriter) Write(body []byte) bool {
	w.wrote = true
	w.gctx.Status(http.StatusOK)
	if _, writeerr := w.gctx.Writer.Write(body); writeerr != nil {
		return false
	}
	return true
}

// Flush reports false once the client has gone away.
func (w *pollWriter) Flush() bool {
	w.gctx.Writer.Flush()
	return w.gctx.Request.Context().Err() == nil
}

func (w *pollWriter) End(err error) {
	w.once.Do(func() {
		w.err = err
		close(w.done)
	})
}
