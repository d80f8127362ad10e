// internal/genai/client.go
//
// OpenAI-compatible HTTP adapter for card text and art generation.
// Plain net/http against the chat-completions and images endpoints; the
// base URL is configurable so any compatible provider works.

package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
)

// ClientConfig configures the generation endpoints and HTTP behavior.
type ClientConfig struct {
	BaseURL    string // default https://api.openai.com/v1
	APIKey     string
	TextModel  string // default gpt-4o-mini
	ImageModel string // default gpt-image-1
	HTTPClient *http.Client
}

// Client calls an OpenAI-compatible API.
type Client struct {
	cfg ClientConfig
}

// NewClient builds a generation client, filling in defaults.
func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.TextModel == "" {
		cfg.TextModel = "gpt-4o-mini"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg}
}

const packSystemPrompt = `Du lager samlekort til et norsk julemonster-kortspill.
Svar KUN med en JSON-liste med nøyaktig %d kort. Hvert kort har feltene:
name, type, hp (tall), rarity, flavor, moves (liste av {name, damage, cost, description}), artPrompt.
Navn, type, flavor og moves skal være på norsk med juletema.
artPrompt skal være på engelsk og beskrive kortets illustrasjon.
Bruk disse sjeldenhetene i rekkefølge: %s.`

// GenerateCards asks the text model for one pack of card metadata with
// the given rarity per slot.
func (c *Client) GenerateCards(ctx context.Context, rarities []cards.Rarity) ([]*cards.Card, error) {
	names := make([]string, len(rarities))
	for i, r := range rarities {
		names[i] = string(r)
	}
	reqBody := map[string]any{
		"model": c.cfg.TextModel,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(packSystemPrompt, len(rarities), strings.Join(names, ", "))},
			{"role": "user", "content": "Lag en ny pakke."},
		},
	}
	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &res); err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("genai: empty completion")
	}

	content := stripFences(res.Choices[0].Message.Content)
	var pack []*cards.Card
	if err := json.Unmarshal([]byte(content), &pack); err != nil {
		return nil, fmt.Errorf("genai: parse pack: %w", err)
	}
	if len(pack) != len(rarities) {
		return nil, fmt.Errorf("genai: expected %d cards, got %d", len(rarities), len(pack))
	}
	// The slot decides rarity, not the model.
	for i, card := range pack {
		card.Rarity = rarities[i]
	}
	return pack, nil
}

// GenerateImage asks the image model for one rendering of prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := map[string]any{
		"model":           c.cfg.ImageModel,
		"prompt":          prompt,
		"n":               1,
		"size":            "1024x1024",
		"response_format": "b64_json",
	}
	var res struct {
		Data []struct {
			B64 string `json:"b64_json"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/images/generations", reqBody, &res); err != nil {
		return nil, err
	}
	if len(res.Data) == 0 || res.Data[0].B64 == "" {
		return nil, ErrNoImage
	}
	return base64.StdEncoding.DecodeString(res.Data[0].B64)
}

// EditImage applies an instruction to an existing image via the
// multipart images/edits endpoint.
func (c *Client) EditImage(ctx context.Context, image []byte, instruction string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "card.png")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	_ = mw.WriteField("model", c.cfg.ImageModel)
	_ = mw.WriteField("prompt", instruction)
	_ = mw.WriteField("response_format", "b64_json")
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/images/edits", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var res struct {
		Data []struct {
			B64 string `json:"b64_json"`
		} `json:"data"`
	}
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	if len(res.Data) == 0 || res.Data[0].B64 == "" {
		return nil, ErrNoImage
	}
	return base64.StdEncoding.DecodeString(res.Data[0].B64)
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: %w", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("genai: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("genai: %s: status %d", req.URL.Path, res.StatusCode)
	}
	return json.Unmarshal(data, out)
}

// stripFences removes a surrounding markdown code fence, which chat
// models add around JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
