package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"civic-issues-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// maxMediaBytes caps a decoded upload. The mobile client sends camera
// photos, nothing bigger.
const maxMediaBytes = 10 << 20

// MediaService stores issue photos in S3.
type MediaService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewMediaService creates a new media service
func NewMediaService(region, bucket, accessKey, secretKey, endpoint string) (*MediaService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client: s3Client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// Upload decodes a base64 image payload, writes the blob to S3 and returns
// the reference record. The record is not persisted here; the caller
// commits it together with the issue.
func (m *MediaService) Upload(ctx context.Context, base64Payload, contentType string) (*models.Media, error) {
	// Tolerate data-URI payloads from the mobile client.
	if idx := strings.Index(base64Payload, ","); idx != -1 && strings.HasPrefix(base64Payload, "data:") {
		if contentType == "" {
			header := base64Payload[:idx]
			if semi := strings.Index(header, ";"); semi != -1 {
				contentType = strings.TrimPrefix(header[:semi], "data:")
			}
		}
		base64Payload = base64Payload[idx+1:]
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	blob, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", ErrValidation)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrValidation)
	}
	if len(blob) > maxMediaBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrValidation, maxMediaBytes)
	}

	mediaID := uuid.New().String()
	s3Key := fmt.Sprintf("issue-media/%s", mediaID)

	_, err = m.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(blob),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	return &models.Media{
		ID:          mediaID,
		S3Key:       s3Key,
		URL:         m.objectURL(s3Key),
		ContentType: contentType,
		SizeBytes:   int64(len(blob)),
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MediaService) objectURL(key string) string {
	if m.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(m.endpoint, "/"), m.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key)
}
