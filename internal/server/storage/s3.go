// Package storage issues presigned S3 (or MinIO) URLs for event images.
// The API never proxies image bytes: clients PUT straight to the bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLValidity = 15 * time.Minute

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

	now = time.Now
)

type Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// ImageUpload describes where a client should PUT an image and the URL the
// image will be served from afterwards.
type ImageUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ImageURL  string    `json:"image_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ImageStore struct {
	cfg Config
}

func NewImageStore(cfg Config) *ImageStore {
	return &ImageStore{cfg: cfg}
}

func (s *ImageStore) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// ImageKey builds a fresh object key for an image of eventID.
func ImageKey(eventID string) string {
	d := now()
	return fmt.Sprintf("events/%s/%d/%02d/%v", eventID, d.Year(), d.Month(), uuid.New())
}

// PresignImageUpload returns a presigned PUT for a new image of eventID.
// When contentType is set the client must send the same Content-Type.
func (s *ImageStore) PresignImageUpload(ctx context.Context, eventID, contentType string) (*ImageUpload, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.Bucket
	key := ImageKey(eventID)

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(pc, ctx, in, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		return nil, err
	}

	return &ImageUpload{
		Key:       key,
		UploadURL: req.URL,
		ImageURL:  s.ObjectURL(key),
		ExpiresAt: now().Add(uploadURLValidity),
	}, nil
}

// ObjectURL is the path-style URL of key in the configured bucket.
func (s *ImageStore) ObjectURL(key string) string {
	return strings.TrimRight(s.cfg.BaseEndpoint, "/") + "/" + s.cfg.Bucket + "/" + key
}
