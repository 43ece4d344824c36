// Package cloudflare provides a client for interacting with the Cloudflare API.
package cloudflare

import (
	"bitwise74/file-share-api/aws"
	"bitwise74/file-share-api/config"
	"context"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Endpoint returns the S3 endpoint of an R2 account
func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2 connects to the R2 bucket configured in c
func NewR2(ctx context.Context, c *config.StorageConfig) (*aws.S3Client, error) {
	return aws.New(ctx, c, func(o *s3.Options) {
		o.BaseEndpoint = sdk.String(R2Endpoint(c.AccountID))
		o.Region = "auto"
	})
}
