package smartadd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultModel = "gemini-3-flash-preview"

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// TimeoutSeconds bounds the whole round trip. Zero means 30s.
	TimeoutSeconds int
}

// GeminiParser extracts structured events from free text through the
// generative-language REST endpoint, constraining the answer with a JSON
// response schema so the model returns exactly the Result fields.
type GeminiParser struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiParser(config GeminiConfig) *GeminiParser {
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := 30 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &GeminiParser{
		apiKey:  config.APIKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string      `json:"responseMimeType"`
	ResponseSchema   interface{} `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var responseSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"title":       map[string]interface{}{"type": "STRING"},
		"description": map[string]interface{}{"type": "STRING"},
		"start":       map[string]interface{}{"type": "STRING"},
		"end":         map[string]interface{}{"type": "STRING"},
		"type": map[string]interface{}{
			"type": "STRING",
			"enum": []string{"meeting", "lecture", "event", "task", "ceremony"},
		},
		"responsible": map[string]interface{}{"type": "STRING"},
		"participants": map[string]interface{}{
			"type":  "ARRAY",
			"items": map[string]interface{}{"type": "STRING"},
		},
		"emoji": map[string]interface{}{"type": "STRING"},
	},
	"required": []string{"title", "start", "end", "type", "responsible"},
}

func buildPrompt(text string, referenceTime time.Time) string {
	return fmt.Sprintf(`O usuário quer adicionar um compromisso à agenda do Chefe do CIAP (PM/PA). Texto: %q.
Data de referência hoje é: %s.
Extraia: título, descrição, início, fim, tipo (meeting, lecture, event, task, ceremony), responsável (quem solicitou ou o Chefe), participantes (autoridades/equipes) e um emoji.
Contexto: O Chefe realiza palestras, reuniões de comando e despachos administrativos.`,
		text, referenceTime.Format(time.RFC3339))
}

func (p *GeminiParser) Parse(ctx context.Context, text string, referenceTime time.Time) (Result, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(text, referenceTime)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("empty answer: %w", ErrBadResult)
	}
	jsonStr := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)
	if jsonStr == "" {
		return Result{}, fmt.Errorf("empty answer: %w", ErrBadResult)
	}

	var result Result
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return Result{}, fmt.Errorf("malformed answer: %w", ErrBadResult)
	}
	return result, nil
}
