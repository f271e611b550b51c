// Package archive stores finished case packages in S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"e7-casework/export"
)

// ObjectPutter is the slice of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes artifacts under cases/<caseId>/ in one bucket.
type S3Archiver struct {
	client ObjectPutter
	bucket string
}

// LoadConfig loads the AWS configuration, using a custom endpoint if
// AWS_ENDPOINT_URL is set (e.g. http://localstack:4566).
func LoadConfig(ctx context.Context, region string) (aws.Config, string, error) {
	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	if endpoint == "" {
		cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
		return cfg, "", err
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, r string, _ ...any) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			HostnameImmutable: true,
			PartitionID:       "aws",
		}, nil
	})
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region), awsCfg.WithEndpointResolverWithOptions(resolver))
	return cfg, endpoint, err
}

// New builds an archiver for bucket from the ambient AWS configuration.
func New(ctx context.Context, bucket, region string) (*S3Archiver, error) {
	cfg, endpoint, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = endpoint != ""
	})
	return NewWithClient(client, bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

// Key returns the object key of a case artifact.
func Key(caseID, filename string) string {
	return fmt.Sprintf("cases/%s/%s", caseID, filename)
}

// Store uploads art and returns its s3:// location.
func (a *S3Archiver) Store(ctx context.Context, caseID string, art export.Artifact) (string, error) {
	key := Key(caseID, art.Filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(art.Data),
		ContentLength:        aws.Int64(int64(len(art.Data))),
		ContentType:          aws.String(art.ContentType),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		Metadata: map[string]string{
			"case_id":     caseID,
			"manifest_id": art.Manifest.ID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
