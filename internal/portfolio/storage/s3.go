// Package storage provides attachment blob storage on S3-compatible
// backends, with presigned URLs so attachment bytes never flow through the
// service.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config carries S3 connection settings. BaseEndpoint is optional and
// supports S3-compatible stores like MinIO.
type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	PresignTTL   time.Duration
}

// Client wraps the AWS SDK S3 client for attachment operations.
type Client struct {
	bucket     string
	presignTTL time.Duration
	s3         *s3.Client
	presign    *s3.PresignClient
}

// New builds an S3 client from static credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignTTL,
		s3:         client,
		presign:    s3.NewPresignClient(client),
	}, nil
}

// PresignPut returns a presigned URL the caller uploads attachment bytes to.
func (c *Client) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := c.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(c.presignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignGet returns a presigned URL the caller downloads attachment bytes
// from.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.presignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Copy performs a server-side copy from srcKey to dstKey within the bucket.
func (c *Client) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.bucket),
		CopySource: aws.String(fmt.Sprintf("%s/%s", c.bucket, srcKey)),
		Key:        aws.String(dstKey),
	})
	return err
}

// Delete removes an object. Deleting a missing key is not an error on S3.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}
