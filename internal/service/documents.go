package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

// FileStore is the hosted file-search corpus the admin endpoints manage.
type FileStore interface {
	Available() bool
	UploadFile(ctx context.Context, displayName, mimeType string, data []byte) (*domain.StoredDocument, error)
	ListFiles(ctx context.Context) ([]domain.StoredDocument, error)
	DeleteFile(ctx context.Context, id string) error
}

// DocumentService validates and forwards admin document operations to the
// file-search store, and imports web pages as text documents.
type DocumentService struct {
	files      FileStore
	httpClient *http.Client
}

func NewDocumentService(files FileStore) *DocumentService {
	return &DocumentService{
		files:      files,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload validates the file type and size, then forwards the content to the
// file-search store. Validation rejects before any upstream call.
func (s *DocumentService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*domain.StoredDocument, error) {
	if size > config.MaxUploadSize {
		return nil, domain.ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := config.AllowedUploadTypes[ext]
	if !ok {
		return nil, domain.ErrFileTypeNotAllowed
	}

	data, err := io.ReadAll(io.LimitReader(r, config.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > config.MaxUploadSize {
		return nil, domain.ErrFileTooLarge
	}

	return s.files.UploadFile(ctx, filename, mimeType, data)
}

func (s *DocumentService) List(ctx context.Context) ([]domain.StoredDocument, error) {
	return s.files.ListFiles(ctx)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.files.DeleteFile(ctx, id)
}

// ImportURL fetches a web page, extracts its readable text and stores it in
// the corpus as a text document.
func (s *DocumentService) ImportURL(ctx context.Context, pageURL string) (*domain.StoredDocument, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, config.MaxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, footer, header").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		return nil, fmt.Errorf("page %q has no readable text", pageURL)
	}

	name := title
	if name == "" {
		name = parsed.Host
	}
	content := text
	if title != "" {
		content = title + "\n\n" + text
	}

	return s.files.UploadFile(ctx, name+".txt", "text/plain", []byte(content))
}
