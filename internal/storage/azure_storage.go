package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStore serves document scans and template files from blob storage.
type BlobStore interface {
	GetImage(ctx context.Context, container, blobName string) (image.Image, error)
	GetTemplateData(ctx context.Context, container, blobName string) ([]byte, error)
}

type azureStore struct {
	client *azblob.Client
}

// NewAzureStore creates a blob store backed by an Azure storage account.
func NewAzureStore(accountName, accountKey string) (BlobStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStore{client: client}, nil
}

// GetImage downloads and decodes a document scan blob.
func (s *azureStore) GetImage(ctx context.Context, container, blobName string) (image.Image, error) {
	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob %s/%s: %w", container, blobName, err)
	}
	return img, nil
}

// GetTemplateData downloads raw template JSON from blob storage.
func (s *azureStore) GetTemplateData(ctx context.Context, container, blobName string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	return io.ReadAll(body)
}
