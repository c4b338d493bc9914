package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const textExtractionPrompt = `You are a sales person at an FMCG company. Customers send
order messages in English, Arabic, Malayalam or Hindi; your job is to understand the
message and return the order details as JSON, in English only.
RULES:
1. only return a json
2. the json should include all data and make sense for the next agent to process`

const mediaExtractionPrompt = `You work at an FMCG company handling new orders. Salesmen
send WhatsApp attachments of the things they need; your job is to read the attachment,
extract the order details and return them as JSON.
RULES:
1. only return a json
2. the json should include all data and make sense for the next agent to process`

// MediaDownloader fetches attachment bytes from the messaging provider
type MediaDownloader interface {
	DownloadMedia(url string) ([]byte, error)
}

// ExtractorService turns unstructured customer content into order details
// using an LLM. Whatever the input type, the result is a loosely-typed map
// for the caller to pass along.
type ExtractorService struct {
	llm   llms.Model
	media MediaDownloader
}

// NewExtractorService creates an extractor backed by the given model and
// media downloader
func NewExtractorService(llm llms.Model, media MediaDownloader) *ExtractorService {
	return &ExtractorService{
		llm:   llm,
		media: media,
	}
}

// NewOpenAIModel builds the default LLM client from the environment.
// The openai client picks up OPENAI_API_KEY on its own.
func NewOpenAIModel() (llms.Model, error) {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return openai.New(openai.WithModel(model))
}

// ExtractFromText extracts order details from a plain text message
func (e *ExtractorService) ExtractFromText(ctx context.Context, text string) (map[string]any, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, textExtractionPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}
	return e.generate(ctx, messages)
}

// ExtractFromImage downloads an image attachment and extracts order details
// from it
func (e *ExtractorService) ExtractFromImage(ctx context.Context, imageURL string) (map[string]any, error) {
	data, err := e.media.DownloadMedia(imageURL)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, mediaExtractionPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Please analyze this image and extract any order details you can find."),
				llms.ImageURLPart("data:image/jpeg;base64," + encoded),
			},
		},
	}
	return e.generate(ctx, messages)
}

// ExtractFromAudio downloads a voice note and extracts order details from it
func (e *ExtractorService) ExtractFromAudio(ctx context.Context, audioURL, contentType string) (map[string]any, error) {
	data, err := e.media.DownloadMedia(audioURL)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, mediaExtractionPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Please listen to this voice note and extract any order details you can find."),
				llms.BinaryPart(contentType, data),
			},
		},
	}
	return e.generate(ctx, messages)
}

// ExtractFromPDF downloads a PDF attachment and extracts order details from it
func (e *ExtractorService) ExtractFromPDF(ctx context.Context, pdfURL string) (map[string]any, error) {
	data, err := e.media.DownloadMedia(pdfURL)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, mediaExtractionPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart("Please read this document and extract any order details you can find."),
				llms.BinaryPart("application/pdf", data),
			},
		},
	}
	return e.generate(ctx, messages)
}

func (e *ExtractorService) generate(ctx context.Context, messages []llms.MessageContent) (map[string]any, error) {
	resp, err := e.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(300))
	if err != nil {
		log.Printf("❌ LLM extraction call failed: %v", err)
		return nil, fmt.Errorf("llm extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm extraction returned no choices")
	}

	return parseOrderJSON(resp.Choices[0].Content)
}

// parseOrderJSON tolerates markdown code fences around the model output
func parseOrderJSON(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var details map[string]any
	if err := json.Unmarshal([]byte(cleaned), &details); err != nil {
		return nil, fmt.Errorf("llm returned invalid order json: %w", err)
	}
	if len(details) == 0 {
		return nil, nil
	}
	return details, nil
}
