package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"taller-backend/internal/config"
	"taller-backend/internal/timeutil"
)

// IconStore uploads brand icons to an S3-compatible bucket and hands
// back the public URL stored on the marca row.
type IconStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewIconStore(ctx context.Context, cfg *config.Config) (*IconStore, error) {
	if cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
	})

	return &IconStore{
		client:    client,
		bucket:    cfg.Storage.Bucket,
		publicURL: strings.TrimRight(cfg.Storage.PublicURL, "/"),
	}, nil
}

var iconContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// UploadIcono stores a brand icon under iconos/ and returns its URL.
func (s *IconStore) UploadIcono(ctx context.Context, marca, filename string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := iconContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported icon format %q", ext)
	}

	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(marca), " ", "-"))
	key := fmt.Sprintf("iconos/%s_%s%s", slug, timeutil.Now().Format("20060102150405"), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload icon: %w", err)
	}

	log.Printf("[Storage] Uploaded icon %s (%d bytes)", key, len(data))
	return s.publicURL + "/" + key, nil
}
