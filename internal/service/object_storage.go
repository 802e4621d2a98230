package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/lshigami/Markhor/config"
	"github.com/rs/zerolog/log"
)

// ObjectStorageService stores original and anonymized submission
// documents. Keys returned by the upload methods are what Download and
// Delete expect back.
type ObjectStorageService interface {
	UploadFile(ctx context.Context, data []byte, folder, fileName string) (string, error)
	UploadText(ctx context.Context, text, folder, fileName string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type s3Storage struct {
	client *s3.S3
	bucket string
}

func NewObjectStorageService(cfg *config.Config) (ObjectStorageService, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Endpoint:         aws.String(cfg.Storage.Endpoint),
		Region:           aws.String(cfg.Storage.Region),
		DisableSSL:       aws.Bool(!cfg.Storage.UseSSL),
		S3ForcePathStyle: aws.Bool(true),
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &s3Storage{
		client: s3.New(sess),
		bucket: cfg.Storage.Bucket,
	}, nil
}

func (s *s3Storage) UploadFile(ctx context.Context, data []byte, folder, fileName string) (string, error) {
	key := path.Join(folder, fmt.Sprintf("%d_%s", time.Now().UnixNano(), fileName))

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("Object uploaded")
	return key, nil
}

func (s *s3Storage) UploadText(ctx context.Context, text, folder, fileName string) (string, error) {
	return s.UploadFile(ctx, []byte(text), folder, fileName)
}

func (s *s3Storage) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
