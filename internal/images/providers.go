package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider is the image-generation capability: one adapter per upstream,
// isolating their differing request and response shapes.
type Provider interface {
	Name() string
	// Generate returns the image as a base64 data URI.
	Generate(ctx context.Context, prompt, size string) (string, error)
}

// ErrBlocked signals an explicit safety/content block from a provider.
var ErrBlocked = errors.New("content blocked by safety filters")

// ErrNoAPIKey signals missing provider credentials.
var ErrNoAPIKey = errors.New("API key not configured")

func timeoutFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return def
}

// encodeDataURI wraps PNG bytes in the embedded-image representation all
// callers consume.
func encodeDataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

// decodeDataURI strips an optional data: prefix and decodes the payload.
func decodeDataURI(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, rest, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data URI")
		}
		s = rest
	}
	return base64.StdEncoding.DecodeString(s)
}

// GeminiProvider calls the Gemini image-preview model. Safety categories are
// explicitly unblocked; an explicit SAFETY finish reason maps to ErrBlocked.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiProvider builds the primary provider from GOOGLE_API_KEY or
// GEMINI_API_KEY, with IMAGE_TIMEOUT_PRIMARY_SEC controlling the call budget.
func NewGeminiProvider() *GeminiProvider {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   "gemini-2.5-flash-image-preview",
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{
			Timeout: timeoutFromEnv("IMAGE_TIMEOUT_PRIMARY_SEC", 30*time.Second),
		},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
	SafetySettings []geminiSafetySetting `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt, size string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrNoAPIKey)
	}

	var req geminiRequest
	req.Contents = append(req.Contents, struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}{Role: "user", Parts: []struct {
		Text string `json:"text"`
	}{{Text: prompt}}})
	req.GenerationConfig.Temperature = 0.8
	for _, category := range []string{
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	} {
		req.SafetySettings = append(req.SafetySettings, geminiSafetySetting{
			Category:  category,
			Threshold: "BLOCK_NONE",
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to read response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini: API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: API returned status %d", resp.StatusCode)
	}

	for _, candidate := range parsed.Candidates {
		reason := candidate.FinishReason
		if strings.Contains(reason, "SAFETY") || strings.Contains(reason, "BLOCKED") {
			return "", fmt.Errorf("gemini: %w: %s", ErrBlocked, reason)
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("gemini: no image found in response")
}

// openaiSizes is the fallback provider's supported size set; anything else
// maps to a standard square.
var openaiSizes = map[string]bool{
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

// OpenAIProvider is the fallback image model. It returns a fetchable URL
// which is downloaded and converted to the embedded representation.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider builds the fallback provider from OPENAI_API_KEY, with
// the slower IMAGE_TIMEOUT_FALLBACK_SEC call budget.
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		model:   "gpt-image-1",
		baseURL: "https://api.openai.com/v1",
		httpClient: &http.Client{
			Timeout: timeoutFromEnv("IMAGE_TIMEOUT_FALLBACK_SEC", 180*time.Second),
		},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt, size string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("openai: %w", ErrNoAPIKey)
	}

	if !openaiSizes[size] {
		size = "1024x1024"
	}

	body, err := json.Marshal(map[string]any{
		"model":  p.model,
		"prompt": prompt,
		"size":   size,
		"n":      1,
	})
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response: %w", err)
	}

	var parsed struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("openai: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai: API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("openai: no image URL in response")
	}

	return p.download(ctx, parsed.Data[0].URL)
}

func (p *OpenAIProvider) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("openai: failed to create download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: image download returned status %d", resp.StatusCode)
	}
	imgBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to read image: %w", err)
	}
	return encodeDataURI(imgBytes), nil
}
