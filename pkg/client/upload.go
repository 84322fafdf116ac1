package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// uploadField is the multipart part name the upload endpoint reads.
const uploadField = "file"

// Upload calls POST /uploads with a single multipart file part and returns
// the stored reference. The endpoint answers `{"url": ...}`; name, size and
// content type fall back to what was sent when the response omits them.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (model.FileReference, error) {
	if r == nil {
		return model.FileReference{}, errors.New("client: upload: reader is required")
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return model.FileReference{}, errors.New("client: upload: file name is required")
	}

	body, contentType := multipartBody(name, r)
	var ref model.FileReference
	err := c.do(ctx, call{
		op: "upload", method: http.MethodPost, url: c.endpoint(nil, "uploads"),
		body: body, contentType: contentType,
	}, &ref)
	// Unblocks the writer when the request ended before draining the body.
	_ = body.Close()
	if err != nil {
		return model.FileReference{}, err
	}
	if strings.TrimSpace(ref.URL) == "" {
		return model.FileReference{}, &TransportError{
			Op: "upload", Method: http.MethodPost, URL: c.endpoint(nil, "uploads"),
			Message: "response carries no url",
		}
	}
	if ref.Name == "" {
		ref.Name = name
	}
	if ref.ContentType == "" {
		ref.ContentType = mime.TypeByExtension(filepath.Ext(name))
	}
	return ref, nil
}

// UploadFile uploads a local file. Its signature matches the terminal
// renderer's uploader hook.
func (c *Client) UploadFile(ctx context.Context, path string) (model.FileReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.FileReference{}, fmt.Errorf("client: upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	ref, err := c.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return model.FileReference{}, err
	}
	if ref.Size == 0 {
		if info, statErr := f.Stat(); statErr == nil {
			ref.Size = info.Size()
		}
	}
	return ref, nil
}

// multipartBody streams r as a multipart form through a pipe so large files
// are never buffered whole.
func multipartBody(name string, r io.Reader) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile(uploadField, name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = writer.Close()
		}
		_ = pw.CloseWithError(err)
	}()
	return pr, writer.FormDataContentType()
}
