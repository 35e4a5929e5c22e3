package cli

import (
	"context"
	"path/filepath"
	"strings"
)

// Upload attaches the file at path to the user's knowledge base.
func (a *App) Upload(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return usage("upload <path>")
	}

	id, err := a.documentService.Upload(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Uploaded %s as document #%d\n", filepath.Base(path), id)
	return nil
}

// Ask poses a question against the uploaded documents. With no question the
// user is prompted for one.
func (a *App) Ask(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		var err error
		question, err = getSimpleText(a.reader, "Your question", a.out)
		if err != nil {
			return err
		}
		if question == "" {
			return nil
		}
	}

	answer, err := a.documentService.Ask(ctx, question)
	if err != nil {
		return err
	}
	a.println(assistantStyle.Render("answer") + ": " + answer)
	return nil
}
