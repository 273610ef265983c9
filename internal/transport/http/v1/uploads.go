package v1

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// UploadConfig controls where uploads are staged.
type UploadConfig struct {
	Dir string
}

// upload is a multipart file staged on disk for the duration of one request.
type upload struct {
	Path      string
	MediaType string
	Size      int64
}

func (u *upload) remove() {
	if u != nil && u.Path != "" {
		_ = os.Remove(u.Path)
	}
}

// formFile returns the header of a multipart file field, or nil when it is absent.
// A body that is not multipart at all carries no file either.
func formFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	return fh, nil
}

// mediaTypeOf returns the declared type of a part. Generic types are dropped so the
// content is sniffed instead.
func mediaTypeOf(fh *multipart.FileHeader) string {
	mt := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "application/octet-stream" {
		return ""
	}
	return mt
}

// stage copies the multipart file into the upload directory.
func (h *Handler) stage(fh *multipart.FileHeader) (*upload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.uploads.Dir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	return &upload{
		Path:      dst.Name(),
		MediaType: mediaTypeOf(fh),
		Size:      n,
	}, nil
}
