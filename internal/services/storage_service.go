// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/config"
)

// ObjectStore keeps uploaded bytes and returns the URL they are served at.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// StorageService writes to S3 when credentials are configured and to the
// local upload directory otherwise.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadOptions struct {
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

func (s *StorageService) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.s3Client != nil {
		return s.uploadToS3(ctx, key, contentType, data)
	}
	return s.uploadToLocal(key, data)
}

func (s *StorageService) uploadToS3(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(key string, data []byte) (string, error) {
	target := filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	logrus.WithField("path", target).Debug("Stored upload on local disk")
	return strings.TrimRight(s.config.AWS.LocalBaseURL, "/") + "/" + key, nil
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

// UploadOptionsFor returns the limits for a chat attachment kind.
func UploadOptionsFor(kind string) UploadOptions {
	switch kind {
	case "audio":
		return UploadOptions{
			MaxSize:      20 * 1024 * 1024, // 20MB
			AllowedTypes: []string{".mp3", ".m4a", ".aac", ".ogg", ".oga", ".opus", ".wav", ".webm"},
		}
	default:
		return UploadOptions{
			MaxSize:      25 * 1024 * 1024, // 25MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".csv", ".txt", ".zip"},
		}
	}
}

func (o UploadOptions) allows(filename string) bool {
	if len(o.AllowedTypes) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range o.AllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
