package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for S3-compatible archive storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
}

// PageArchiver uploads raw pages to S3-compatible storage so batches
// can be replayed or re-parsed after local cleanup.
type PageArchiver struct {
	client *s3.Client
	bucket string
}

func NewPageArchiver(ctx context.Context, cfg S3Config) (*PageArchiver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &PageArchiver{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ArchivePage uploads one raw page under batches/<batch>/raw/NNNN_raw.html.
func (a *PageArchiver) ArchivePage(ctx context.Context, batchID string, idx int, html []byte) error {
	key := fmt.Sprintf("batches/%s/raw/%04d_raw.html", batchID, idx)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(html),
		ContentType: aws.String("text/html"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
