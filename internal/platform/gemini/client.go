package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"google.golang.org/genai"

	"github.com/cmorris/wordforge/internal/config"
	"github.com/cmorris/wordforge/internal/enrichment"
)

// promptTemplate asks the text model for a single JSON document so the
// response can be parsed without free-text scraping.
const promptTemplate = `You are a lexicographer. For the word or phrase given below, respond with a
single JSON object and nothing else, using exactly these keys:
  "word": the canonical dictionary form,
  "definition": a concise learner-friendly definition,
  "part_of_speech": the primary part of speech,
  "phonetic": an IPA transcription,
  "example": one natural example sentence,
  "synonyms": an array of up to five synonyms.

Locale: {{.Locale}}
Word: {{.Text}}`

type promptData struct {
	Text   string
	Locale string
}

// Client implements enrichment.Client on top of Google's Gemini API,
// using a text model for enrichment and an image model for assets.
type Client struct {
	logger     *slog.Logger
	client     *genai.Client
	textModel  string
	assetModel string
	prompt     *template.Template
}

// NewClient validates the configuration and initializes the underlying
// API client. The context is only used for client construction.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", enrichment.ErrInvalidConfig)
	}
	if cfg.TextModel == "" {
		return nil, fmt.Errorf("%w: text model cannot be empty", enrichment.ErrInvalidConfig)
	}
	if cfg.AssetModel == "" {
		return nil, fmt.Errorf("%w: asset model cannot be empty", enrichment.ErrInvalidConfig)
	}

	prompt, err := template.New("enrich").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", enrichment.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", enrichment.ErrInvalidConfig, err)
	}

	return &Client{
		logger:     logger.With("component", "gemini_client"),
		client:     client,
		textModel:  cfg.TextModel,
		assetModel: cfg.AssetModel,
		prompt:     prompt,
	}, nil
}

// EnrichText asks the text model for the enrichment document of one
// word. Safety blocks map to ErrContentRejected; transport failures to
// ErrTransient so the caller's retry policy applies.
func (c *Client) EnrichText(ctx context.Context, text, locale string) (*enrichment.EnrichedContent, error) {
	var buf bytes.Buffer
	if err := c.prompt.Execute(&buf, promptData{Text: text, Locale: locale}); err != nil {
		return nil, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel,
		genai.Text(buf.String()),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		c.logger.ErrorContext(ctx, "text model call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", enrichment.ErrTransient, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil &&
			resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
			return nil, fmt.Errorf("%w: prompt blocked (%s)",
				enrichment.ErrContentRejected, resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%w: no content generated", enrichment.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: response blocked by safety filters", enrichment.ErrContentRejected)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", enrichment.ErrInvalidResponse)
	}

	var text0 string
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text0 += part.Text
		}
	}

	content, err := parseEnrichment(text0)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "text model call succeeded", "word", content.Word)
	return content, nil
}

// parseEnrichment decodes and validates the model's JSON document.
func parseEnrichment(raw string) (*enrichment.EnrichedContent, error) {
	var content enrichment.EnrichedContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", enrichment.ErrInvalidResponse, err)
	}
	if content.Word == "" || content.Definition == "" {
		return nil, fmt.Errorf("%w: response missing word or definition", enrichment.ErrInvalidResponse)
	}
	return &content, nil
}

// GenerateAsset runs one fallback attempt against the image model. A
// responsible-AI filter hit reports rejected=true so the caller can
// advance to the next attempt instead of retrying.
func (c *Client) GenerateAsset(
	ctx context.Context,
	seed *enrichment.EnrichedContent,
	attempt enrichment.AttemptDescriptor,
) (*enrichment.AssetRef, bool, error) {
	if seed == nil {
		return nil, false, errors.New("seed content cannot be nil")
	}

	resp, err := c.client.Models.GenerateImages(ctx, c.assetModel, attempt.Prompt,
		&genai.GenerateImagesConfig{NumberOfImages: 1})
	if err != nil {
		c.logger.ErrorContext(ctx, "image model call failed",
			"attempt", attempt.Name, "error", err)
		return nil, false, fmt.Errorf("%w: %v", enrichment.ErrTransient, err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		// The API silently drops filtered images from the result set.
		c.logger.InfoContext(ctx, "image filtered by provider policy",
			"attempt", attempt.Name, "word", seed.Word)
		return nil, true, nil
	}

	img := resp.GeneratedImages[0]
	if img.RAIFilteredReason != "" {
		c.logger.InfoContext(ctx, "image filtered by provider policy",
			"attempt", attempt.Name, "word", seed.Word, "reason", img.RAIFilteredReason)
		return nil, true, nil
	}
	if img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return nil, false, fmt.Errorf("%w: empty image in response", enrichment.ErrInvalidResponse)
	}

	return &enrichment.AssetRef{
		URL:      assetDataURL(img.Image),
		MimeType: img.Image.MIMEType,
	}, false, nil
}

// assetDataURL encodes the image as a data URL. Callers treat asset
// URLs as opaque; an object-store uploader can replace this without
// touching the pipeline.
func assetDataURL(img *genai.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.ImageBytes))
}
