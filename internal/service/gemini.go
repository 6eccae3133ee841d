package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

const systemInstruction = `You are the information assistant of the hospital. Answer questions about the hospital, its doctors, procedures, prices, facilities and patient services using the uploaded documents. Always reply in the language of the question. If the documents do not cover the question, say so politely and suggest contacting the hospital directly. Keep answers concise and factual.`

// GeminiService calls the hosted generative-AI service for chat completion
// with file-search grounding, for category classification, and for document
// management through the Files API.
type GeminiService struct {
	apiKey          string
	baseURL         string
	model           string
	fileSearchStore string
	httpClient      *http.Client
}

func NewGeminiService(apiKey, model, fileSearchStore string) *GeminiService {
	return &GeminiService{
		apiKey:          apiKey,
		baseURL:         "https://generativelanguage.googleapis.com",
		model:           model,
		fileSearchStore: fileSearchStore,
		httpClient:      &http.Client{Timeout: config.RequestTimeout},
	}
}

// Available reports whether a credential is configured. Without one the
// classifier falls back to keyword matching and chat calls fail.
func (s *GeminiService) Available() bool {
	return s.apiKey != ""
}

// ChatTurn is one entry of the conversation context sent to the model.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type geminiTool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type generateRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []geminiTool     `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate produces a chat answer for message, with history as context.
// History must not include the current message.
func (s *GeminiService) Generate(ctx context.Context, history []ChatTurn, message string) (string, error) {
	if !s.Available() {
		return "", domain.ErrModelUnavailable
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  domain.RoleUser,
		Parts: []geminiPart{{Text: message}},
	})

	req := generateRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          contents,
		GenerationConfig: generationConfig{
			Temperature:     config.DefaultTemperature,
			MaxOutputTokens: config.MaxOutputTokens,
		},
	}
	if s.fileSearchStore != "" {
		req.Tools = []geminiTool{{FileSearch: &fileSearchTool{
			FileSearchStoreNames: []string{s.fileSearchStore},
		}}}
	}

	return s.generate(ctx, req)
}

// Classify runs a lightweight completion used for category detection. The
// prompt already carries the classification instruction; the raw model text
// is returned for the caller to parse.
func (s *GeminiService) Classify(ctx context.Context, prompt string) (string, error) {
	if !s.Available() {
		return "", domain.ErrModelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, config.ClassifyTimeout)
	defer cancel()

	req := generateRequest{
		Contents: []geminiContent{{
			Role:  domain.RoleUser,
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: generationConfig{Temperature: 0, MaxOutputTokens: 64},
	}
	return s.generate(ctx, req)
}

func (s *GeminiService) generate(ctx context.Context, genReq generateRequest) (string, error) {
	payload, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("rate limited by completion service (429)")
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("completion service unavailable (503)")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

type geminiFile struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType"`
	SizeBytes   string `json:"sizeBytes"`
	CreateTime  string `json:"createTime"`
}

func (f geminiFile) toDocument() domain.StoredDocument {
	size, _ := strconv.ParseInt(f.SizeBytes, 10, 64)
	return domain.StoredDocument{
		ID:        strings.TrimPrefix(f.Name, "files/"),
		Name:      f.DisplayName,
		MimeType:  f.MimeType,
		SizeBytes: size,
		CreatedAt: f.CreateTime,
	}
}

// UploadFile stores a document in the file-search corpus.
func (s *GeminiService) UploadFile(ctx context.Context, displayName, mimeType string, data []byte) (*domain.StoredDocument, error) {
	if !s.Available() {
		return nil, domain.ErrModelUnavailable
	}

	url := s.baseURL + "/upload/v1beta/files"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("x-goog-api-key", s.apiKey)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-File-Name", displayName)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file upload returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		File geminiFile `json:"file"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse upload response: %w", err)
	}

	doc := result.File.toDocument()
	return &doc, nil
}

// ListFiles returns the documents currently held by the file-search store.
func (s *GeminiService) ListFiles(ctx context.Context) ([]domain.StoredDocument, error) {
	if !s.Available() {
		return nil, domain.ErrModelUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/v1beta/files", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file list returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Files []geminiFile `json:"files"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse list response: %w", err)
	}

	docs := make([]domain.StoredDocument, 0, len(result.Files))
	for _, f := range result.Files {
		docs = append(docs, f.toDocument())
	}
	return docs, nil
}

// DeleteFile removes a document from the file-search corpus.
func (s *GeminiService) DeleteFile(ctx context.Context, id string) error {
	if !s.Available() {
		return domain.ErrModelUnavailable
	}

	url := fmt.Sprintf("%s/v1beta/files/%s", s.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrDocumentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file delete returned %d", resp.StatusCode)
	}
	return nil
}
