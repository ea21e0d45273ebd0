package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// PDFRequest describes a PDF upload to POST /pdf
type PDFRequest struct {
	Path     string
	Filename string
	Query    string
	ThreadID string
}

// PDF uploads a document with a question about it. The file is streamed
// through a pipe so large documents are never held in memory.
func (c *Client) PDF(ctx context.Context, req *PDFRequest) (*ChatResponse, error) {
	file, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.Path)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writePDFForm(mw, file, filename, req))
	}()

	// The backend reads query and thread_id from the URL; the form fields
	// are kept for servers that parse them from the body.
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("thread_id", req.ThreadID)

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/pdf?"+params.Encode(), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp ChatResponse
	err = c.do(httpReq, &resp)
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func writePDFForm(mw *multipart.Writer, file io.Reader, filename string, req *PDFRequest) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := mw.WriteField("query", req.Query); err != nil {
		return fmt.Errorf("failed to write query: %w", err)
	}
	if err := mw.WriteField("thread_id", req.ThreadID); err != nil {
		return fmt.Errorf("failed to write thread id: %w", err)
	}
	return mw.Close()
}
