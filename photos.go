package main

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// photoStore archives uploaded food photos and returns their public URL.
type photoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// photoKey returns a unique object key for a user's photo, with an
// extension matching contentType when one is known.
func photoKey(userID int, contentType string) string {
	ext := ""
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	default:
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("food-photos/%d/%s%s", userID, uuid.NewString(), ext)
}

// s3PhotoStore stores photos in an S3 bucket.
type s3PhotoStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// newS3PhotoStore loads AWS credentials from the default chain. publicURL is
// the base used to build object URLs; when empty the virtual-hosted bucket
// URL is used.
func newS3PhotoStore(ctx context.Context, bucket, region, publicURL string) (*s3PhotoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &s3PhotoStore{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *s3PhotoStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
