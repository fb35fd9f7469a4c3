// Package storage wraps the S3 client used for two things: fetching source
// transcripts referenced by s3:// URIs in extraction jobs, and uploading the
// export artifacts of completed runs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/HexaField/causalmap/internal/util"
	"github.com/HexaField/causalmap/pkg/logger"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		logger.Error("[Storage] Failed to load S3 configuration", "err", err)
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// GetFile fetches an object from the configured bucket.
func GetFile(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnvString("AWS_BUCKET", "causalmap")
	result, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (*s3.GetObjectOutput, error) {
		return client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return buf.Bytes(), nil
}

// PutFile uploads an object under the given key, deriving the content type
// from the file extension.
func PutFile(ctx context.Context, client *s3.Client, key string, body io.Reader) error {
	bucket := util.GetEnvString("AWS_BUCKET", "causalmap")
	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}

// ResolveURI fetches the text behind an s3://bucket/key or plain-key source
// URI. The bucket segment of an s3:// URI is ignored; the service uses one
// configured bucket.
func ResolveURI(ctx context.Context, client *s3.Client, sourceURI string) (string, error) {
	key := sourceURI
	if after, ok := strings.CutPrefix(sourceURI, "s3://"); ok {
		if _, rest, found := strings.Cut(after, "/"); found {
			key = rest
		} else {
			return "", fmt.Errorf("invalid s3 uri %q: missing object key", sourceURI)
		}
	}

	data, err := GetFile(ctx, client, key)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source uri %q: %w", sourceURI, err)
	}
	return string(data), nil
}
