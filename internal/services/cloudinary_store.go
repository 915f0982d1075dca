package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryFolder = "recoverydesk/documents"

// CloudinaryStore keeps documents as raw Cloudinary assets.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Name() string { return "cloudinary" }

// Save uploads the blob and returns its secure URL.
func (s *CloudinaryStore) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	overwrite := false
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     key,
		Folder:       cloudinaryFolder,
		Overwrite:    &overwrite,
		ResourceType: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload document: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	publicID, err := cloudinaryPublicID(ref)
	if err != nil {
		return err
	}
	_, err = s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	return err
}

// cloudinaryPublicID extracts "folder/name.ext" from a delivery URL such as
// https://res.cloudinary.com/demo/raw/upload/v1712/recoverydesk/documents/x.pdf.
func cloudinaryPublicID(ref string) (string, error) {
	_, rest, ok := strings.Cut(ref, "/upload/")
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: not a cloudinary url: %q", ErrInvalidInput, ref)
	}
	if first, tail, found := strings.Cut(rest, "/"); found && len(first) > 1 && first[0] == 'v' && isDigits(first[1:]) {
		rest = tail
	}
	return rest, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
