package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rosesandhello/facescrape/app/identify"
)

// Client talks to an Ollama server and implements both inference
// collaborator contracts. The model is a black box here; this package only
// formats prompts and parses the line-oriented response format back into a
// ProductIdentity.
type Client struct {
	baseURL     string
	visionModel string
	textModel   string
	httpClient  *http.Client
	userAgent   string
}

var _ identify.TextInferrer = (*Client)(nil)
var _ identify.VisionInferrer = (*Client)(nil)

func NewClient(baseURL, textModel, visionModel, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		visionModel: visionModel,
		textModel:   textModel,
		httpClient:  httpClient,
		userAgent:   userAgent,
	}
}

const textPrompt = `Identify the specific product being sold in this marketplace listing.

TITLE: %q
DESCRIPTION: %q

SPECIFIC means a searchable brand and model, like "Nintendo Switch OLED" or
"iPhone 13 Pro". If you cannot identify a specific product, answer unknown.

Format your response EXACTLY as:
NAME: [canonical product name or unknown]
BRAND: [brand or unknown]
MODEL: [model or unknown]
CATEGORY: [product category]`

// InferIdentity asks the text model to resolve (title, description) into a
// canonical identity. Returns (nil, nil) when the model answers but names
// nothing specific.
func (c *Client) InferIdentity(ctx context.Context, title, description string) (*identify.ProductIdentity, error) {
	prompt := fmt.Sprintf(textPrompt, title, description)

	response, err := c.generate(ctx, c.textModel, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}

	return parseIdentityResponse(response), nil
}

const visionPrompt = `Analyze this product photo from a marketplace listing titled %q.

Identify the specific product shown. SPECIFIC means a searchable brand and
model. If the photo shows no identifiable branded product, answer unknown.

Format your response EXACTLY as:
NAME: [canonical product name or unknown]
BRAND: [brand or unknown]
MODEL: [model or unknown]
CATEGORY: [product category]`

// InferIdentityFromImage downloads the listing photo and asks the vision
// model what it shows.
func (c *Client) InferIdentityFromImage(ctx context.Context, imageURL, title string) (*identify.ProductIdentity, error) {
	imageData, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	prompt := fmt.Sprintf(visionPrompt, title)
	images := []string{base64.StdEncoding.EncodeToString(imageData)}

	response, err := c.generate(ctx, c.visionModel, prompt, images)
	if err != nil {
		return nil, fmt.Errorf("vision inference failed: %w", err)
	}

	return parseIdentityResponse(response), nil
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) generate(ctx context.Context, model, prompt string, images []string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Images: images,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Debug("Inference response received", "model", model, "length", len(result.Response))
	return result.Response, nil
}

func (c *Client) downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// parseIdentityResponse turns the model's line-oriented answer into an
// identity. Returns nil when the model could not name a specific product;
// the caller treats that as tier failure, not an error.
func parseIdentityResponse(response string) *identify.ProductIdentity {
	fields := map[string]string{}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		for _, key := range []string{"NAME", "BRAND", "MODEL", "CATEGORY"} {
			prefix := key + ":"
			if strings.HasPrefix(line, prefix) {
				fields[key] = strings.TrimSpace(strings.TrimPrefix(line, prefix))
			}
		}
	}

	name := fields["NAME"]
	if name == "" || strings.EqualFold(name, "unknown") {
		return nil
	}

	attrs := map[string]string{}
	for key, attr := range map[string]string{"BRAND": "brand", "MODEL": "model"} {
		if v := fields[key]; v != "" && !strings.EqualFold(v, "unknown") {
			attrs[attr] = strings.ToLower(v)
		}
	}

	category := strings.ToLower(fields["CATEGORY"])
	if category == "" || category == "unknown" {
		category = "general"
	}

	return &identify.ProductIdentity{
		CanonicalName: name,
		Category:      category,
		Attributes:    attrs,
	}
}
