package xapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newBlockingServer returns the address of a TLS server whose handlers
// wait until block is closed.
func newBlockingServer(t *testing.T, block <-chan struct{}) string {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv.Listener.Addr().String()
}
