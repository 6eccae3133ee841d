package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewGeminiService("test-key", "test-model", "")
	svc.baseURL = server.URL
	return svc
}

func TestGenerateSendsHistoryAndMessage(t *testing.T) {
	var got generateRequest
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "  the answer  "}},
				},
			}},
		})
	})

	history := []ChatTurn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleModel, Content: "earlier answer"},
	}
	answer, err := svc.Generate(context.Background(), history, "current question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, domain.RoleModel, got.Contents[1].Role)
	assert.Equal(t, "current question", got.Contents[2].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
}

func TestGenerateWithoutCredential(t *testing.T) {
	svc := NewGeminiService("", "test-model", "")
	assert.False(t, svc.Available())

	_, err := svc.Generate(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerateRateLimited(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Generate(context.Background(), nil, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateEmptyCandidates(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := svc.Generate(context.Background(), nil, "hello")
	assert.Error(t, err)
}

func TestClassifyUsesZeroTemperature(t *testing.T) {
	var got generateRequest
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "hospital,doctors"}},
				},
			}},
		})
	})

	out, err := svc.Classify(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "hospital,doctors", out)
	assert.Zero(t, got.GenerationConfig.Temperature)
	assert.Nil(t, got.SystemInstruction)
}

func TestUploadFileParsesResponse(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/v1beta/files", r.URL.Path)
		assert.Equal(t, "raw", r.Header.Get("X-Goog-Upload-Protocol"))
		json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]any{
				"name":        "files/abc123",
				"displayName": "prices.pdf",
				"mimeType":    "application/pdf",
				"sizeBytes":   "2048",
				"createTime":  "2026-01-05T10:00:00Z",
			},
		})
	})

	doc, err := svc.UploadFile(context.Background(), "prices.pdf", "application/pdf", []byte("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", doc.ID)
	assert.Equal(t, "prices.pdf", doc.Name)
	assert.Equal(t, int64(2048), doc.SizeBytes)
}

func TestDeleteFileNotFound(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := svc.DeleteFile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
