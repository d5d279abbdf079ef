// Package mcptools exposes the extraction engine as MCP tools.
package mcptools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/internal/models"
)

var log = logrus.WithField("component", "mcp")

// Extractor turns document bytes into an extraction result
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) models.ExtractionResult
}

// Tools registers extraction tools on an MCP server
type Tools struct {
	extractor     Extractor
	maxUploadSize int64
}

// New creates the tool set. maxUploadSize bounds documents read from disk or decoded from base64.
func New(extractor Extractor, maxUploadSize int64) *Tools {
	return &Tools{extractor: extractor, maxUploadSize: maxUploadSize}
}

// Register adds extract_text and supported_types to srv
func (t *Tools) Register(srv *mcp.Server) {
	srv.AddTool(&mcp.Tool{
		Name:        "extract_text",
		Description: "Extract plain text from a PDF, JPEG or PNG document. Pass either a file path or base64 content.",
		InputSchema: inputSchema(map[string]any{
			"path":           map[string]any{"type": "string", "description": "Path of the document on the server"},
			"content_base64": map[string]any{"type": "string", "description": "Base64-encoded document bytes"},
			"content_type":   map[string]any{"type": "string", "description": "MIME type; inferred from the path extension when empty"},
		}, nil),
	}, t.extractText)

	srv.AddTool(&mcp.Tool{
		Name:        "supported_types",
		Description: "List the content types accepted by extract_text.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, t.supportedTypes)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type extractReq struct {
	Path          string `json:"path"`
	ContentBase64 string `json:"content_base64"`
	ContentType   string `json:"content_type"`
}

func (t *Tools) extractText(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var r extractReq
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
	}

	data, contentType, err := t.load(r)
	if err != nil {
		return toolError(err), nil
	}

	result := t.extractor.Extract(ctx, data, contentType)
	log.WithField("status", result.Status).WithField("chars", result.CharactersExtracted).Debug("extract_text")

	out, err := json.Marshal(result)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(out)}},
		IsError: !result.OK(),
	}, nil
}

// load resolves the document bytes and content type of a request
func (t *Tools) load(r extractReq) ([]byte, string, error) {
	contentType := r.ContentType

	switch {
	case r.Path != "" && r.ContentBase64 != "":
		return nil, "", errors.New("pass either path or content_base64, not both")

	case r.Path != "":
		info, err := os.Stat(r.Path)
		if err != nil {
			return nil, "", fmt.Errorf("cannot read %s: %w", r.Path, err)
		}
		if info.Size() > t.maxUploadSize {
			return nil, "", fmt.Errorf("file size exceeds maximum allowed size of %d bytes", t.maxUploadSize)
		}
		data, err := os.ReadFile(r.Path)
		if err != nil {
			return nil, "", fmt.Errorf("cannot read %s: %w", r.Path, err)
		}
		if contentType == "" {
			contentType = contentTypeFromPath(r.Path)
		}
		return data, contentType, nil

	case r.ContentBase64 != "":
		if int64(base64.StdEncoding.DecodedLen(len(r.ContentBase64))) > t.maxUploadSize+2 {
			return nil, "", fmt.Errorf("file size exceeds maximum allowed size of %d bytes", t.maxUploadSize)
		}
		data, err := base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid content_base64: %w", err)
		}
		return data, contentType, nil

	default:
		return nil, "", errors.New("path or content_base64 is required")
	}
}

// contentTypeFromPath maps a file extension to a supported content type
func contentTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return models.ContentTypePDF
	case ".jpg", ".jpeg":
		return models.ContentTypeJPEG
	case ".png":
		return models.ContentTypePNG
	default:
		return ""
	}
}

func (t *Tools) supportedTypes(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(map[string]any{
		"content_types":   models.AllowedContentTypes,
		"max_upload_size": t.maxUploadSize,
	})
	if err != nil {
		return toolError(err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(out)}},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
