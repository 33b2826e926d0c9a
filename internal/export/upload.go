package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
)

// Config describes an S3-compatible bucket.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	StorageClass    string
}

// Uploader puts rendered reports into a bucket.
type Uploader struct {
	bucket       string
	publicBase   string
	storageClass string
	client       *s3.Client
}

// NewUploader builds an Uploader. Without an endpoint the default AWS
// resolution applies; without static keys the default credential chain does.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("export bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key := strings.TrimSpace(cfg.AccessKeyID); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)))
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3-compatible stores behind a custom endpoint expect path-style keys.
		o.UsePathStyle = endpoint != ""
	})

	return &Uploader{
		bucket:       bucket,
		publicBase:   strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		storageClass: strings.TrimSpace(cfg.StorageClass),
		client:       client,
	}, nil
}

// PublicURL returns where key can be read. Without a public base URL an
// s3:// reference is returned.
func (u *Uploader) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if u.publicBase == "" {
		return "s3://" + u.bucket + "/" + key
	}
	return u.publicBase + "/" + key
}

// Put stores body under key and returns its public URL.
func (u *Uploader) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(ct),
		CacheControl: aws.String("private, max-age=300"),
	}
	if sc := parseStorageClass(u.storageClass); sc != nil {
		input.StorageClass = *sc
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return u.PublicURL(key), nil
}

// UploadReport renders r and uploads it under ReportKey(r).
func (u *Uploader) UploadReport(ctx context.Context, r stats.Report) (string, error) {
	body, err := RenderPDF(r)
	if err != nil {
		return "", err
	}
	return u.Put(ctx, ReportKey(r), body, ContentType)
}

// ReportKey names the object for a report, grouped by month of generation.
func ReportKey(r stats.Report) string {
	t := r.GeneratedAt
	return fmt.Sprintf("reports/%s/salesdash-%s-%s.pdf", t.Format("2006/01"), r.Period, t.Format("20060102-150405"))
}

func parseStorageClass(v string) *types.StorageClass {
	v = strings.TrimSpace(strings.ToUpper(v))
	if v == "" {
		return nil
	}
	sc := types.StorageClass(v)
	return &sc
}
