// Package minio stores profile pictures in S3-compatible object storage using
// MinIO. Every upload is stored as the original plus small, medium and large
// JPEG variants next to it.
package minio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrUploadFailed = errors.New("upload failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrNotFound     = errors.New("object not found")
	ErrInvalidImage = errors.New("invalid image")
)

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

var sizeDimensions = map[Size]int{
	SizeSmall:  64,
	SizeMedium: 128,
	SizeLarge:  256,
}

const avatarPrefix = "avatars"

// maxImageBytes bounds a decoded upload.
const maxImageBytes = 5 << 20

// maxImagePixels bounds width times height so a small, highly compressed
// upload cannot expand into a huge bitmap when decoded.
const maxImagePixels = 4096 * 4096

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

type MinioService struct {
	client     *minio.Client
	bucketName string
	endpoint   string
	useSSL     bool
}

func NewMinioService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &MinioService{
		client:     client,
		bucketName: bucketName,
		endpoint:   endpoint,
		useSSL:     useSSL,
	}, nil
}

func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
	}
	return nil
}

// ---------------------------------------------
// Profile Pictures
// ---------------------------------------------

// UploadProfilePicture decodes a data URI, stores it with its variants under
// the user's prefix and returns the public URL of the original.
func (s *MinioService) UploadProfilePicture(ctx context.Context, userID, dataURI string) (string, error) {
	data, contentType, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}

	objectName := path.Join(avatarPrefix, userID, uuid.NewString()+extensions[contentType])
	if err := s.UploadWithVariants(ctx, objectName, data, contentType); err != nil {
		return "", err
	}

	return s.GetPublicURL(objectName), nil
}

// DeleteProfilePicture removes the objects behind ref. References that do not
// point into this bucket, such as stored data URIs, are ignored.
func (s *MinioService) DeleteProfilePicture(ctx context.Context, ref string) error {
	objectName, ok := s.ObjectNameFromURL(ref)
	if !ok {
		return nil
	}
	return s.DeleteWithVariants(ctx, objectName)
}

// ParseDataURI decodes a base64 data URI holding a PNG, JPEG or GIF image.
func ParseDataURI(dataURI string) ([]byte, string, error) {
	meta, payload, found := strings.Cut(dataURI, ",")
	if !found || !strings.HasPrefix(meta, "data:") {
		return nil, "", fmt.Errorf("%w: not a data URI", ErrInvalidImage)
	}

	mediaType, isBase64 := strings.CutSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: data URI is not base64 encoded", ErrInvalidImage)
	}
	if _, ok := extensions[mediaType]; !ok {
		return nil, "", fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mediaType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return nil, "", fmt.Errorf("%w: image too large", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, "", fmt.Errorf("%w: dimensions %dx%d out of range", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	return data, mediaType, nil
}

// ---------------------------------------------
// Objects
// ---------------------------------------------

func (s *MinioService) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (s *MinioService) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinioService) GetPublicURL(objectName string) string {
	return s.baseURL() + "/" + objectName
}

// ObjectNameFromURL reverses GetPublicURL.
func (s *MinioService) ObjectNameFromURL(ref string) (string, bool) {
	objectName, ok := strings.CutPrefix(ref, s.baseURL()+"/")
	if !ok || objectName == "" {
		return "", false
	}
	return objectName, true
}

func (s *MinioService) baseURL() string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   s.endpoint,
		Path:   "/" + s.bucketName,
	}).String()
}

// UploadWithVariants uploads the original image and creates size variants (small, medium, large).
// The image is decoded once and every variant is resized from that bitmap.
func (s *MinioService) UploadWithVariants(ctx context.Context, objectName string, data []byte, contentType string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if err := s.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return err
	}

	for size, dim := range sizeDimensions {
		resized, err := resizeImage(img, dim)
		if err != nil {
			continue
		}
		variantName := variantObjectName(objectName, size)
		_ = s.Upload(ctx, variantName, bytes.NewReader(resized), int64(len(resized)), "image/jpeg")
	}
	return nil
}

// DeleteWithVariants deletes the original and all size variants
func (s *MinioService) DeleteWithVariants(ctx context.Context, objectName string) error {
	if err := s.Delete(ctx, objectName); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	for size := range sizeDimensions {
		_ = s.Delete(ctx, variantObjectName(objectName, size))
	}
	return nil
}

func variantObjectName(objectName string, size Size) string {
	ext := path.Ext(objectName)
	return strings.TrimSuffix(objectName, ext) + "_" + string(size) + ".jpg"
}

func resizeImage(img image.Image, dim int) ([]byte, error) {
	resized := imaging.Fit(img, dim, dim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
