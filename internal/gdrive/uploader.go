// Package gdrive delivers rendered export documents to a shared Drive folder.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Uploader struct {
	service  *drive.Service
	folderID string
	fileIDs  map[string]string
	mu       sync.Mutex
}

func NewUploader(ctx context.Context, credPath, folderID string) (*Uploader, error) {
	creds, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.CredentialsFromJSONWithTypeAndParams(ctx, creds, google.ServiceAccount, google.CredentialsParams{Scopes: []string{drive.DriveFileScope}})
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(config))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Uploader{
		service:  svc,
		folderID: folderID,
		fileIDs:  make(map[string]string),
	}, nil
}

// Upload pushes one rendered export to the Drive folder, replacing the
// previous upload for the same file name if one exists.
func (u *Uploader) Upload(ctx context.Context, name, mimeType string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	media := bytes.NewReader(data)

	if fileID, ok := u.fileIDs[name]; ok {
		_, err := u.service.Files.Update(fileID, &drive.File{}).
			Media(media, googleapi.ContentType(mimeType)).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("drive update %s: %w", name, err)
		}
		return nil
	}

	doc, err := u.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{u.folderID},
	}).
		Media(media, googleapi.ContentType(mimeType)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("drive create %s: %w", name, err)
	}

	u.fileIDs[name] = doc.Id
	return nil
}
