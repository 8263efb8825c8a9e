package storage

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// immutableCacheControl is set on content-addressed assets: the key changes
// whenever the content does, so the object itself never goes stale.
const immutableCacheControl = "public, max-age=31536000, immutable"

type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	CDNUrl    string
}

// Client wraps the S3 SDK client with the handful of bucket operations the
// offload subsystem needs. Construct once and share; the SDK client is safe
// for concurrent use.
type Client struct {
	cfg Config
	s3  *s3.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil {
			endpoint = parsed.String()
		}
		opts = append(opts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{URL: endpoint, SigningRegion: cfg.Region}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Client{
		cfg: cfg,
		s3:  s3Client,
	}, nil
}

func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if key == "" {
		return errors.New("object key is required")
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := c.s3.PutObject(ctx, input)
	return err
}

// PutImmutable uploads a content-addressed object with long-lived caching
// headers.
func (c *Client) PutImmutable(ctx context.Context, key, contentType string, body io.Reader) error {
	if key == "" {
		return errors.New("object key is required")
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(c.cfg.Bucket),
		Key:          aws.String(key),
		Body:         body,
		CacheControl: aws.String(immutableCacheControl),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := c.s3.PutObject(ctx, input)
	return err
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// List returns the keys under prefix, walking every result page.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.cfg.Bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.s3, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			if object.Key != nil {
				keys = append(keys, *object.Key)
			}
		}
	}
	return keys, nil
}

// HeadBucket verifies the bucket exists and the credentials can reach it.
func (c *Client) HeadBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.cfg.Bucket),
	})
	return err
}

func (c *Client) PublicURL(key string) string {
	if key == "" || c.cfg.CDNUrl == "" {
		return ""
	}
	return c.cfg.CDNUrl + "/" + key
}

func (c *Client) Bucket() string {
	return c.cfg.Bucket
}

func (c *Client) Region() string {
	return c.cfg.Region
}
