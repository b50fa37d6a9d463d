package watchlist

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points s3:// tickers files at AWS S3 or an S3-compatible store such as R2.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// s3Fetcher downloads one object. The client is built on first use.
type s3Fetcher struct {
	bucket string
	key    string
	cfg    S3Config

	mu         sync.Mutex
	downloader downloader
}

func newS3Fetcher(bucket, key string, cfg S3Config) *s3Fetcher {
	return &s3Fetcher{bucket: bucket, key: key, cfg: cfg}
}

func (f *s3Fetcher) fetch(ctx context.Context) ([]byte, error) {
	d, err := f.client(ctx)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer([]byte{})
	if _, err := d.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
	}); err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", f.bucket, f.key, err)
	}
	return buf.Bytes(), nil
}

func (f *s3Fetcher) client(ctx context.Context) (downloader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.downloader != nil {
		return f.downloader, nil
	}

	region := f.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if f.cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.cfg.AccessKeyID, f.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if f.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	f.downloader = manager.NewDownloader(client)
	return f.downloader, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(location string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(location, "s3://") {
		return "", "", false
	}
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Host, key, true
}
