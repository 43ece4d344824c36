// Package aws defines functions used to interact with the AWS API
package aws

import (
	conf "bitwise74/file-share-api/config"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client stores objects in a single bucket of any S3 compatible service
type S3Client struct {
	C      *s3.Client
	Bucket *string

	presign            *s3.PresignClient
	multipartThreshold int64
}

// NewS3 connects to AWS S3, or to c.Endpoint when one is set
func NewS3(ctx context.Context, c *conf.StorageConfig) (*S3Client, error) {
	return New(ctx, c, func(o *s3.Options) {
		o.Region = c.Region
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// New builds a client from the credentials in c, applies opt and makes sure
// the configured bucket exists
func New(ctx context.Context, c *conf.StorageConfig, opt func(o *s3.Options)) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(c.Bucket)
	client := s3.NewFromConfig(cfg, opt)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:                  client,
		Bucket:             bucket,
		presign:            s3.NewPresignClient(client),
		multipartThreshold: c.MultipartThreshold,
	}, nil
}
