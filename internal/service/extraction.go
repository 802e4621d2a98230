package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Markhor/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// ImageAnalysis is the structured result of the vision side-channel:
// richer than plain OCR text, used as extra grading context.
type ImageAnalysis struct {
	Description   string   `json:"description"`
	ExtractedText string   `json:"extractedText"`
	Formulas      []string `json:"formulas"`
	ContainsChart bool     `json:"containsChart"`
	ChartType     string   `json:"chartType,omitempty"`
}

// ExtractionProvider turns a raw document into text. ExtractText returns
// ErrUnsupportedFormat for extensions it cannot handle; AnalyzeImage
// failures are absorbed by the pipeline (OCR fallback).
type ExtractionProvider interface {
	ExtractText(ctx context.Context, data []byte, fileType string) (string, error)
	AnalyzeImage(ctx context.Context, data []byte) (*ImageAnalysis, error)
}

var extractionMIMETypes = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
}

// supportedFileType reports whether the extension has an extraction
// path: a backend MIME type or the local docx reader.
func supportedFileType(fileType string) bool {
	ft := strings.ToLower(fileType)
	if ft == "docx" {
		return true
	}
	_, ok := extractionMIMETypes[ft]
	return ok
}

type geminiExtractionProvider struct {
	model *genai.GenerativeModel
}

func NewGeminiExtractionProvider(cfg *config.Config) (ExtractionProvider, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Extraction provider will be non-functional.")
		return &geminiExtractionProvider{}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiExtractionProvider{model: client.GenerativeModel(cfg.Scoring.Model)}, nil
}

func (p *geminiExtractionProvider) ExtractText(ctx context.Context, data []byte, fileType string) (string, error) {
	ft := strings.ToLower(fileType)

	// Word documents are plain zip archives; no model call is needed.
	if ft == "docx" {
		return extractDocxText(data)
	}

	mimeType, ok := extractionMIMETypes[ft]
	if !ok {
		return "", fmt.Errorf("file type %q: %w", fileType, ErrUnsupportedFormat)
	}

	if p.model == nil {
		return "", fmt.Errorf("extraction backend not configured")
	}

	if mimeType == "text/plain" {
		return string(data), nil
	}

	resp, err := p.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text("Extract all text from this document verbatim. Preserve line breaks and ordering. Return only the extracted text, with no commentary."),
	)
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}

	text := collectText(resp)
	log.Info().Int("chars", len(text)).Str("fileType", fileType).Msg("Text extraction completed")
	return text, nil
}

func (p *geminiExtractionProvider) AnalyzeImage(ctx context.Context, data []byte) (*ImageAnalysis, error) {
	if p.model == nil {
		return nil, fmt.Errorf("vision backend not configured")
	}

	resp, err := p.model.GenerateContent(ctx,
		genai.ImageData("jpeg", data),
		genai.Text("Analyze this image of a student's work. Extract all text, identify any "+
			"mathematical formulas, detect charts (bar/pie/line), and describe handwriting if "+
			"present. Respond with JSON only, using the fields: description, extractedText, "+
			"formulas (array of strings), containsChart (boolean), chartType."),
	)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}

	raw := stripJSONFence(collectText(resp))
	var analysis ImageAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	return &analysis, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	return text
}

// stripJSONFence removes a markdown ```json code fence if the model
// wrapped its output in one.
func stripJSONFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.Index(trimmed, "```json"); idx != -1 {
		trimmed = trimmed[idx+len("```json"):]
		if end := strings.LastIndex(trimmed, "```"); end != -1 {
			trimmed = trimmed[:end]
		}
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if end := strings.LastIndex(trimmed, "```"); end != -1 {
			trimmed = trimmed[:end]
		}
	}
	return strings.TrimSpace(trimmed)
}
