package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient calls the Gemini generateContent endpoint for plain text,
// speech audio and schema-constrained JSON.
type GeminiClient struct {
	HTTPClient *http.Client
	APIKey     string
	TextModel  string
	TTSModel   string
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
	ResponseModality []string       `json:"responseModalities,omitempty"`
	SpeechConfig     *speechConfig  `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient constructs a client. The API key may be empty; every call
// then fails with a configuration error instead of reaching the network.
func NewGeminiClient(apiKey, textModel, ttsModel string) *GeminiClient {
	return &GeminiClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		TextModel:  textModel,
		TTSModel:   ttsModel,
	}
}

// Configured reports whether an API key is present.
func (c *GeminiClient) Configured() bool { return c.APIKey != "" }

func (c *GeminiClient) generate(ctx context.Context, model string, req generateContentRequest) (*generateContentResponse, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("gemini api key missing")
	}
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, c.APIKey)

	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var gr generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates")
	}
	return &gr, nil
}

// firstText returns the first non-empty text part. Responses can carry
// several parts and the usable reply is not always the leading one.
func firstText(parts []geminiPart) string {
	for _, p := range parts {
		if strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ""
}

// GenerateText sends a single-prompt request and returns the trimmed reply.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	gr, err := c.generate(ctx, c.TextModel, generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	text := firstText(gr.Candidates[0].Content.Parts)
	if text == "" {
		return "", fmt.Errorf("gemini: empty text part")
	}
	return strings.TrimSpace(text), nil
}

// GenerateJSON sends a request constrained by a response schema and returns
// the raw JSON document produced by the model.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) ([]byte, error) {
	gr, err := c.generate(ctx, c.TextModel, generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return nil, err
	}
	text := firstText(gr.Candidates[0].Content.Parts)
	if text == "" {
		return nil, fmt.Errorf("gemini: empty json part")
	}
	return []byte(text), nil
}

// GenerateSpeech synthesizes the text with the given prebuilt voice and
// returns decoded little-endian 16-bit PCM plus its sample rate. A response
// carrying no audio payload is an error, never a silent no-op.
func (c *GeminiClient) GenerateSpeech(ctx context.Context, text, voice string) ([]byte, int, error) {
	gr, err := c.generate(ctx, c.TTSModel, generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModality: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	})
	if err != nil {
		return nil, 0, err
	}
	for _, part := range gr.Candidates[0].Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		pcm, derr := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if derr != nil {
			return nil, 0, fmt.Errorf("gemini: decode audio payload: %w", derr)
		}
		return pcm, sampleRateFromMime(part.InlineData.MimeType), nil
	}
	return nil, 0, fmt.Errorf("gemini: response carries no audio payload")
}

// sampleRateFromMime parses mime types like "audio/L16;codec=pcm;rate=24000".
// The Gemini TTS rate is fixed at 24 kHz, used as the fallback.
func sampleRateFromMime(mime string) int {
	const fallback = 24000
	for _, f := range strings.Split(mime, ";") {
		f = strings.TrimSpace(f)
		if v, ok := strings.CutPrefix(f, "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return fallback
}
