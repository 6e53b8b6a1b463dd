package strapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const uploadPath = "/api/upload"

// UploadFile sends a single file to the CMS upload API and returns its media
// record. Uploads are not transactional with the member update that follows;
// a crash in between leaves an orphaned upload, cleaned up by out-of-band
// maintenance.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*UploadedFile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("strapi: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("strapi: build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("strapi: build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, uploadPath, nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// The upload API responds with an array even for a single file.
	var uploaded []UploadedFile
	if err := c.send(req, &uploaded); err != nil {
		return nil, err
	}
	if len(uploaded) == 0 {
		return nil, fmt.Errorf("strapi: upload returned no files")
	}

	return &uploaded[0], nil
}

// DeleteFile removes an uploaded file from the media library.
func (c *Client) DeleteFile(ctx context.Context, fileID int) error {
	path := fmt.Sprintf("%s/files/%d", uploadPath, fileID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
