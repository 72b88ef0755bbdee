package imagefetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/uidex/core/internal/config"
	"github.com/uidex/core/internal/modules/configs"
)

const maxImageBytes = 20 << 20 // provider request limits sit well below this

// Image is raw image content ready for a base64 vision block.
type Image struct {
	MediaType string
	Data      []byte
}

// Base64 returns the standard-encoded payload.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Service resolves image references to raw bytes. Public http(s) URLs are
// fetched directly; s3:// refs go through the configured bucket, so private
// uploads never need a public URL just to be evaluated.
type Service struct {
	cfgSvc *configs.Service
	client *http.Client
}

func NewService(cfgSvc *configs.Service) *Service {
	return &Service{
		cfgSvc: cfgSvc,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsObjectRef reports whether ref addresses the private object store.
func IsObjectRef(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}

// Fetch resolves an image reference to its bytes and media type.
func (s *Service) Fetch(ctx context.Context, ref string) (*Image, error) {
	if IsObjectRef(ref) {
		return s.fetchObject(ctx, ref)
	}
	return s.fetchHTTP(ctx, ref)
}

func (s *Service) fetchHTTP(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("image fetch failed: %s returned %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image too large: %s", url)
	}

	mediaType := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = MediaTypeFromRef(url)
	}
	return &Image{MediaType: mediaType, Data: data}, nil
}

func (s *Service) fetchObject(ctx context.Context, ref string) (*Image, error) {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return nil, err
	}
	if !cfg.ImageStorage.Enable {
		return nil, fmt.Errorf("image storage is disabled, cannot resolve %s", ref)
	}

	bucket, key, err := splitObjectRef(ref, cfg.ImageStorage.Bucket)
	if err != nil {
		return nil, err
	}

	client, err := newObjectClient(cfg.ImageStorage)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s: %w", ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image too large: %s", ref)
	}

	mediaType := aws.ToString(out.ContentType)
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = MediaTypeFromRef(key)
	}
	return &Image{MediaType: mediaType, Data: data}, nil
}

func newObjectClient(opts config.ImageStorageOptions) (*s3.Client, error) {
	region := strings.TrimSpace(opts.Region)
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if region == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("incomplete image storage config: region/access_key_id/secret_access_key are required")
	}

	s3Opts := s3.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		s3Opts.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		s3Opts.UsePathStyle = true
	}
	if opts.PathStyleAccess {
		s3Opts.UsePathStyle = true
	}
	return s3.New(s3Opts), nil
}

// splitObjectRef parses s3://bucket/key or s3:///key (default bucket).
func splitObjectRef(ref, defaultBucket string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", "", fmt.Errorf("invalid object ref: %s", ref)
	}
	bucket = rest[:slash]
	key = strings.TrimPrefix(rest[slash+1:], "/")
	if bucket == "" {
		bucket = strings.TrimSpace(defaultBucket)
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object ref: %s", ref)
	}
	return bucket, key, nil
}

// MediaTypeFromRef guesses the media type from a file extension.
func MediaTypeFromRef(ref string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(ref, "?", 2)[0]))
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
