/*
# Module: storage/s3.go
S3 publisher for the rendered embed preview image.

## Linked Modules
- [storage/repository](./repository.go) - PreviewPublisher interface
- [services/preview](../services/preview.go) - Renders the image

## Tags
storage, s3, aws, images

## Exports
PreviewS3Publisher, NewPreviewS3Publisher, S3API

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "storage/s3.go" ;
    code:description "S3 publisher for the rendered embed preview image" ;
    code:linksTo [
        code:name "storage/repository" ;
        code:path "./repository.go" ;
        code:relationship "PreviewPublisher interface"
    ], [
        code:name "services/preview" ;
        code:path "../services/preview.go" ;
        code:relationship "Renders the image"
    ] ;
    code:exports :PreviewS3Publisher, :NewPreviewS3Publisher, :S3API ;
    code:tags "storage", "s3", "aws", "images" .
<!-- End LinkedDoc RDF -->
*/
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of *s3.Client the publisher uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PreviewS3Publisher uploads preview images under previews/ with a unique key
type PreviewS3Publisher struct {
	client S3API
	bucket string
	region string
	newKey func() string
}

// NewPreviewS3Publisher creates a publisher for bucket in region
func NewPreviewS3Publisher(client S3API, bucket, region string) *PreviewS3Publisher {
	return &PreviewS3Publisher{
		client: client,
		bucket: bucket,
		region: region,
		newKey: func() string { return fmt.Sprintf("previews/%s.png", uuid.New().String()) },
	}
}

// Publish uploads png and returns its public URL
func (p *PreviewS3Publisher) Publish(ctx context.Context, png []byte) (string, error) {
	if p.bucket == "" {
		return "", fmt.Errorf("preview bucket not configured")
	}

	key := p.newKey()
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(png),
		ContentType:  aws.String("image/png"),
		CacheControl: aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key), nil
}
