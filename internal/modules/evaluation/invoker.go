package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	appcfg "github.com/uidex/core/internal/config"
	"github.com/uidex/core/internal/modules/storage/imagefetch"
)

// Invoker issues one vision-model request per image and returns the raw text
// of the first text block. It is validated once per batch: credential
// problems surface as a ConfigurationError from NewInvoker, everything that
// happens per call is a TransientInvocationError. No retry happens here.
type Invoker struct {
	provider    *appcfg.AIProvider
	opts        appcfg.EvaluationOptions
	fetcher     *imagefetch.Service
	itemTimeout time.Duration
}

func NewInvoker(provider *appcfg.AIProvider, opts appcfg.EvaluationOptions, fetcher *imagefetch.Service) (*Invoker, error) {
	if err := validateProvider(provider); err != nil {
		return nil, err
	}

	timeout := time.Duration(opts.ItemTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Invoker{
		provider:    provider,
		opts:        opts,
		fetcher:     fetcher,
		itemTimeout: timeout,
	}, nil
}

// Invoke evaluates one image and returns the model's raw text. The per-item
// timeout is enforced here so one slow call cannot stall its whole chunk.
func (iv *Invoker) Invoke(ctx context.Context, in EvaluationInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, iv.itemTimeout)
	defer cancel()

	prompt := buildReviewPrompt(in.ProjectContext)

	var raw string
	var err error
	switch {
	case isAnthropicProviderType(iv.provider.Type):
		raw, err = iv.invokeAnthropic(ctx, in.ImageRef, prompt)
	case isOpenAICompatibleProviderType(iv.provider.Type):
		raw, err = iv.invokeCompatible(ctx, in.ImageRef, prompt)
	default:
		raw, err = iv.invokeOpenAI(ctx, in.ImageRef, prompt)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", transientErr("empty response from model", nil)
	}
	return raw, nil
}

func (iv *Invoker) maxTokens() int {
	if iv.opts.MaxOutputTokens > 0 {
		return iv.opts.MaxOutputTokens
	}
	return 1024
}

func (iv *Invoker) invokeAnthropic(ctx context.Context, imageRef, prompt string) (string, error) {
	modelID := strings.TrimSpace(iv.provider.DefaultModel)
	if modelID == "" {
		modelID = "claude-haiku-4-5-20251001"
	}

	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(strings.TrimSpace(iv.provider.APIKey)),
		anthropicoption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(iv.provider.Endpoint); endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	client := anthropicclient.NewClient(opts...)

	imageBlock, err := iv.anthropicImageBlock(ctx, imageRef)
	if err != nil {
		return "", err
	}

	message, err := client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:       anthropicclient.Model(modelID),
		MaxTokens:   int64(iv.maxTokens()),
		Temperature: anthropicclient.Float(iv.opts.Temperature),
		System: []anthropicclient.TextBlockParam{
			{Text: reviewSystemPrompt},
		},
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(
				imageBlock,
				anthropicclient.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", transientErr("anthropic request failed", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", transientErr("no text block in anthropic response", nil)
}

func (iv *Invoker) anthropicImageBlock(ctx context.Context, imageRef string) (anthropicclient.ContentBlockParamUnion, error) {
	if !imagefetch.IsObjectRef(imageRef) {
		return anthropicclient.NewImageBlock(anthropicclient.URLImageSourceParam{URL: imageRef}), nil
	}
	img, err := iv.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return anthropicclient.ContentBlockParamUnion{}, transientErr("image fetch failed", err)
	}
	return anthropicclient.NewImageBlockBase64(img.MediaType, img.Base64()), nil
}

func (iv *Invoker) invokeOpenAI(ctx context.Context, imageRef, prompt string) (string, error) {
	modelID := strings.TrimSpace(iv.provider.DefaultModel)
	if modelID == "" {
		modelID = "gpt-4o-mini"
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(strings.TrimSpace(iv.provider.APIKey)),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(iv.provider.Endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)

	imageURL, err := iv.imageURL(ctx, imageRef)
	if err != nil {
		return "", err
	}

	parts := []openaiclient.ChatCompletionContentPartUnionParam{
		openaiclient.ImageContentPart(openaiclient.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
		openaiclient.TextContentPart(prompt),
	}

	resp, err := client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(modelID),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(reviewSystemPrompt),
			openaiclient.UserMessage(parts),
		},
		MaxTokens:   openaiclient.Int(int64(iv.maxTokens())),
		Temperature: openaiclient.Float(iv.opts.Temperature),
	})
	if err != nil {
		return "", transientErr("openai request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", transientErr("empty response from model", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// imageURL returns a URL the model can consume: public refs pass through,
// object-store refs are inlined as data URLs.
func (iv *Invoker) imageURL(ctx context.Context, imageRef string) (string, error) {
	if !imagefetch.IsObjectRef(imageRef) {
		return imageRef, nil
	}
	img, err := iv.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return "", transientErr("image fetch failed", err)
	}
	return fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Base64()), nil
}

// invokeCompatible speaks raw chat-completions JSON for providers that are
// OpenAI-shaped but deviate from the official API in small ways.
func (iv *Invoker) invokeCompatible(ctx context.Context, imageRef, prompt string) (string, error) {
	endpoint := normalizeOpenAICompatibleEndpoint(iv.provider.Endpoint)
	model := strings.TrimSpace(iv.provider.DefaultModel)
	if model == "" {
		model = "gpt-4o-mini"
	}

	imageURL, err := iv.imageURL(ctx, imageRef)
	if err != nil {
		return "", err
	}

	body, _ := json.Marshal(map[string]interface{}{
		"model": model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": reviewSystemPrompt},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
					{"type": "text", "text": prompt},
				},
			},
		},
		"max_tokens":  iv.maxTokens(),
		"temperature": iv.opts.Temperature,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", transientErr("request build failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(iv.provider.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: iv.itemTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", transientErr("request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transientErr("response read failed", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", transientErr(
			fmt.Sprintf("%d %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", transientErr("malformed response envelope", err)
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", transientErr(result.Error.Message, nil)
	}
	if len(result.Choices) == 0 {
		return "", transientErr("empty response from model", nil)
	}
	return result.Choices[0].Message.Content, nil
}
