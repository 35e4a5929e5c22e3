package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// DocumentService attaches documents to the user's knowledge base and asks
// questions against it. Uploads are independent of any chat session.
type DocumentService interface {
	// Upload sends the file at path. An empty path is ignored.
	Upload(ctx context.Context, path string) (int64, error)
	UploadReader(ctx context.Context, name string, r io.Reader) (int64, error)
	// Ask returns the server's answer. A blank question is ignored.
	Ask(ctx context.Context, question string) (string, error)
}

type documentService struct {
	client client.Client
	log    logging.Logger
}

func NewDocumentService(c client.Client, log logging.Logger) DocumentService {
	return &documentService{client: c, log: log.With("component", "documents")}
}

func (d *documentService) Upload(ctx context.Context, path string) (int64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		d.log.Error(ctx, "opening document failed", "path", path, "error", err)
		return 0, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	return d.UploadReader(ctx, filepath.Base(path), f)
}

func (d *documentService) UploadReader(ctx context.Context, name string, r io.Reader) (int64, error) {
	if r == nil {
		return 0, nil
	}

	id, err := d.client.UploadDocument(ctx, name, r)
	if err != nil {
		d.log.Error(ctx, "upload failed", "name", name, "error", err)
		return 0, err
	}

	d.log.Info(ctx, "document uploaded", "name", name, "document_id", id)
	return id, nil
}

func (d *documentService) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil
	}

	answer, err := d.client.AskQuestion(ctx, question)
	if err != nil {
		d.log.Error(ctx, "ask failed", "error", err)
		return "", err
	}
	return answer, nil
}
