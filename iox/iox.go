// Package iox holds small I/O cleanup helpers shared across the module.
package iox

import "io"

// DiscardClose closes c, dropping the error. Meant for defers where a
// failed close changes nothing:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DrainClose reads rc to EOF and then closes it, dropping both errors.
// Draining an HTTP response body before close lets the transport reuse
// the connection.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}

// CloseFunc wraps c.Close in a zero-argument function, so a closer can
// be handed to t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(adapter))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error. For cleanup calls that are
// not io.Closers, such as Flush or Sync.
func DiscardErr(fn func() error) { _ = fn() }
