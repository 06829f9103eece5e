// Package netx holds small HTTP transport helpers shared by the client.
package netx

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// MultipartBody streams src as a single multipart/form-data file part named
// field. The body is produced on the fly through a pipe, so the file is never
// held in memory. The returned content type carries the boundary and must be
// set on the request.
//
// A read error on src is surfaced to whoever reads the body.
func MultipartBody(field, filename string, src io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(fmt.Errorf("read %s: %w", filename, err))
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType()
}

// DrainAndClose discards what is left of a response body so the connection
// can be reused, then closes it.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}
