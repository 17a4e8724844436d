// Package photostore copies accepted application photos into S3-compatible
// object storage and resolves stored references to short-lived URLs.
package photostore

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/guildgate/internal/netx"
	"github.com/google/uuid"
)

const (
	refScheme      = "s3://"
	maxPhotoBytes  = 10 << 20
	presignExpires = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	download = netx.Download
	upload   = netx.UploadToPresignedURL
)

// Settings describes the object store. RootUser and RootPassword are static
// credentials (MinIO root user or an access key pair).
type Settings struct {
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
	Bucket       string
}

type S3Archive struct {
	settings Settings
}

func NewS3Archive(s Settings) *S3Archive {
	return &S3Archive{settings: s}
}

func (a *S3Archive) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(a.settings.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.settings.RootUser,
			a.settings.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(a.settings.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// ObjectKey returns the storage key of photo number index (1-based) of an
// application.
func ObjectKey(applicationID string, index int, contentType string) string {
	ext := ".bin"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("applications/%s/%02d-%s%s", applicationID, index, uuid.NewString(), ext)
}

// Ref formats the stored reference of an object.
func Ref(bucket, key string) string {
	return refScheme + bucket + "/" + key
}

// ParseRef splits an s3:// reference. ok is false for any other reference.
func ParseRef(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, refScheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" || path.Clean("/"+key) != "/"+key {
		return "", "", false
	}
	return bucket, key, true
}

// Archive copies the attachment at sourceURL into the bucket and returns the
// s3:// reference that replaces it on the application.
func (a *S3Archive) Archive(ctx context.Context, applicationID string, index int, sourceURL, contentType string) (string, error) {
	data, fetchedType, err := download(ctx, sourceURL, maxPhotoBytes)
	if err != nil {
		return "", fmt.Errorf("fetch attachment: %w", err)
	}
	if contentType == "" {
		contentType = fetchedType
	}

	presignClient, err := a.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := a.settings.Bucket
	key := ObjectKey(applicationID, index, contentType)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return "", err
	}

	if err := upload(ctx, req.URL, data, contentType); err != nil {
		return "", err
	}
	return Ref(bucket, key), nil
}

// Resolve returns a retrievable URL for a stored photo reference. References
// that are not s3:// handles are already URLs and are returned unchanged.
func (a *S3Archive) Resolve(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := ParseRef(ref)
	if !ok {
		return ref, nil
	}

	presignClient, err := a.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
