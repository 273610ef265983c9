package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	genaisdk "google.golang.org/genai"

	"github.com/xiaot623/visionassist/internal/domain"
)

// AnalyzeMedia uploads the file at path, polls until the service has processed it,
// then sends the file together with prompt.
func (c *Client) AnalyzeMedia(ctx context.Context, path, mimeType, prompt string) Reply {
	file, err := c.upload(ctx, path, mimeType)
	if err != nil {
		return TextReply("", err)
	}

	file, err = c.waitActive(ctx, file)
	if err != nil {
		return TextReply("", err)
	}

	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	contents := []*genaisdk.Content{
		genaisdk.NewContentFromParts([]*genaisdk.Part{
			genaisdk.NewPartFromURI(file.URI, file.MIMEType),
			genaisdk.NewPartFromText(prompt),
		}, genaisdk.RoleUser),
	}
	resp, err := c.sdk.Models.GenerateContent(callCtx, c.model, contents, c.generation)
	if err != nil {
		return TextReply("", fmt.Errorf("%w: %v", domain.ErrTransport, err))
	}
	return TextReply(resp.Text(), nil)
}

func (c *Client) upload(ctx context.Context, path, mimeType string) (*genaisdk.File, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	file, err := c.sdk.Files.UploadFromPath(ctx, path, &genaisdk.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", domain.ErrTransport, path, err)
	}
	slog.Info("uploaded media", "name", file.Name, "uri", file.URI)
	return file, nil
}

// waitActive polls file until it leaves PROCESSING, giving up after maxWait.
func (c *Client) waitActive(ctx context.Context, file *genaisdk.File) (*genaisdk.File, error) {
	if c.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxWait)
		defer cancel()
	}

	for file.State == genaisdk.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for %s: %w", file.Name, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		getCtx, cancel := c.withTimeout(ctx)
		next, err := c.sdk.Files.Get(getCtx, file.Name, nil)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: get %s: %v", domain.ErrTransport, file.Name, err)
		}
		file = next
	}

	if file.State != genaisdk.FileStateActive {
		return nil, fmt.Errorf("file %s failed to process", file.Name)
	}
	return file, nil
}
