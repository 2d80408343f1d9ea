package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
)

// SpeechClient proxies a speech-synthesis API. Synthesis is synchronous:
// the complete audio body is returned, nothing is streamed.
type SpeechClient struct {
	apiURL    string
	voicesURL string
	apiKey    string
	model     string
	http      *http.Client
}

func NewSpeechClient(apiURL, voicesURL, apiKey, model string) *SpeechClient {
	return &SpeechClient{
		apiURL:    apiURL,
		voicesURL: voicesURL,
		apiKey:    apiKey,
		model:     model,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type synthesisRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders text with the given voice and returns MP3 bytes.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Model:          c.model,
		Voice:          voice,
		Input:          text,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: string(audio)}
	}
	return audio, nil
}

type Voice struct {
	ShortName string `json:"short_name"`
	Gender    string `json:"gender"`
	Locale    string `json:"locale"`
}

// Voices fetches the provider's voice catalogue. Returns an empty list when
// no catalogue endpoint is configured.
func (c *SpeechClient) Voices(ctx context.Context) ([]Voice, error) {
	if c.voicesURL == "" {
		return []Voice{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.voicesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build voices request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Body: "malformed voices response"}
	}
	return parsed.Voices, nil
}

// CloneClient proxies a voice-cloning API: upload a named audio sample,
// get back a provider voice id.
type CloneClient struct {
	apiURL   string
	apiKey   string
	provider string
	http     *http.Client
}

func NewCloneClient(apiURL, apiKey, provider string) *CloneClient {
	return &CloneClient{
		apiURL:   apiURL,
		apiKey:   apiKey,
		provider: provider,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Provider names the upstream service so the resulting voice id can be
// stored alongside its origin.
func (c *CloneClient) Provider() string {
	return c.provider
}

// Clone uploads an audio sample and returns the provider's voice id.
func (c *CloneClient) Clone(ctx context.Context, name, filename string, sample io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("name", name); err != nil {
		return "", fmt.Errorf("build clone request: %w", err)
	}
	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return "", fmt.Errorf("build clone request: %w", err)
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", fmt.Errorf("read voice sample: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build clone request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build clone request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &apperr.UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperr.UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperr.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.VoiceID == "" {
		return "", &apperr.UpstreamError{Status: resp.StatusCode, Body: "malformed clone response"}
	}
	return parsed.VoiceID, nil
}
