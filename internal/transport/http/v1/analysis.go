package v1

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/visionassist/internal/service"
)

// stageImage stages the "image" field after checking it against the upload policy.
// A non-empty message means the request is answered with that text instead.
func (h *Handler) stageImage(c echo.Context, prompt string) (*upload, string, error) {
	fh, err := formFile(c, "image")
	if err != nil {
		return nil, "", err
	}
	if fh == nil || prompt == "" {
		return nil, service.InstructionText, nil
	}
	if msg := h.service.CheckUpload(c.Request().Context(), mediaTypeOf(fh), fh.Size); msg != "" {
		return nil, msg, nil
	}

	up, err := h.stage(fh)
	if err != nil {
		return nil, "", err
	}
	return up, "", nil
}

// Analyze runs detection plus enhancement on an uploaded image.
// POST /v1/analysis (multipart: image, prompt)
func (h *Handler) Analyze(c echo.Context) error {
	prompt := c.FormValue("prompt")
	up, msg, err := h.stageImage(c, prompt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if msg != "" {
		return c.JSON(http.StatusOK, map[string]interface{}{"text": msg})
	}
	defer up.remove()

	result, text := h.service.Analyze(c.Request().Context(), service.AnalyzeRequest{
		SessionID: c.QueryParam("session_id"),
		ImagePath: up.Path,
		Prompt:    prompt,
		MediaType: up.MediaType,
		ImageSize: up.Size,
	})

	resp := map[string]interface{}{"text": text}
	if result != nil {
		resp["detections"] = result.Detections
		resp["detections_text"] = result.DetectionsText
		resp["prompt"] = result.Prompt
		if len(result.AnnotatedImage) > 0 {
			resp["annotated_image"] = base64.StdEncoding.EncodeToString(result.AnnotatedImage)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// DescribeImage asks the generative model about an uploaded image.
// POST /v1/analysis/describe (multipart: image, prompt)
func (h *Handler) DescribeImage(c echo.Context) error {
	prompt := c.FormValue("prompt")
	up, msg, err := h.stageImage(c, prompt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if msg != "" {
		return c.JSON(http.StatusOK, map[string]interface{}{"text": msg})
	}
	defer up.remove()

	text := h.service.DescribeImage(c.Request().Context(), service.AnalyzeRequest{
		SessionID: c.QueryParam("session_id"),
		ImagePath: up.Path,
		Prompt:    prompt,
		MediaType: up.MediaType,
	})
	return c.JSON(http.StatusOK, map[string]interface{}{"text": text})
}

// ClearAnalysis resets the analysis view.
// DELETE /v1/analysis
func (h *Handler) ClearAnalysis(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"text": h.service.ClearAnalysis(c.Request().Context()),
	})
}

// AnalyzeMedia uploads a video or other media file to the generative service.
// POST /v1/media/analyze (multipart: file, prompt)
func (h *Handler) AnalyzeMedia(c echo.Context) error {
	prompt := c.FormValue("prompt")
	fh, err := formFile(c, "file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if fh == nil || prompt == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"text": h.service.AnalyzeMedia(c.Request().Context(), "", "", "", ""),
		})
	}

	up, err := h.stage(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer up.remove()

	mediaType := up.MediaType
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(up.Path))
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	text := h.service.AnalyzeMedia(c.Request().Context(), c.QueryParam("session_id"), up.Path, mediaType, prompt)
	return c.JSON(http.StatusOK, map[string]interface{}{"text": text})
}
