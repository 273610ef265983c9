package v1

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/adapter/speech"
	"github.com/xiaot623/visionassist/internal/adapter/vision"
	"github.com/xiaot623/visionassist/internal/policy"
	"github.com/xiaot623/visionassist/internal/service"
	"github.com/xiaot623/visionassist/tests/helpers"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return newTestHandlerWithOptions(t, service.Options{MaxImageBytes: 1 << 20})
}

func newTestHandlerWithOptions(t *testing.T, opts service.Options) *Handler {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc := service.New(
		db,
		genai.NewMockClient(),
		vision.NewAdapter(vision.NewMockDetector(), 0),
		speech.NewAdapter(nil, 0),
		policyEngine,
		opts,
	)
	return NewHandler(svc, UploadConfig{Dir: t.TempDir()})
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(3, 3, color.RGBA{0, 0, 255, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type filePart struct {
	field, filename, contentType string
	data                         []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}
