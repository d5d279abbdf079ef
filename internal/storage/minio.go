package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "storage")

// PresignExpiry is how long archived text links stay valid
const PresignExpiry = 24 * time.Hour

var Client *minio.Client
var BucketName string

// Init connects to MinIO from MINIO_* environment variables. Without
// MINIO_ENDPOINT the archive stays disabled.
func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return fmt.Errorf("no storage configuration")
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "extractions"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", BucketName)
	}

	Client = client
	log.WithField("bucket", BucketName).Info("text archive connected")
	return nil
}

// ObjectName builds the archive key for an extraction: YYYY/MM/{id}.txt
func ObjectName(id string, at time.Time) string {
	return fmt.Sprintf("%d/%02d/%s.txt", at.Year(), at.Month(), id)
}

// UploadText archives extracted text and returns its path as {bucket}/YYYY/MM/{id}.txt
func UploadText(ctx context.Context, id string, text string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("storage client not initialized")
	}

	objectName := ObjectName(id, time.Now().UTC())
	_, err := Client.PutObject(ctx, BucketName, objectName, strings.NewReader(text), int64(len(text)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload text: %w", err)
	}

	// Return the full path for storage in DB
	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a presigned URL for downloading archived text
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("storage client not initialized")
	}

	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath, BucketName), PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteObject removes archived text from storage
func DeleteObject(ctx context.Context, objectPath string) error {
	if Client == nil {
		return fmt.Errorf("storage client not initialized")
	}
	return Client.RemoveObject(ctx, BucketName, trimBucket(objectPath, BucketName), minio.RemoveObjectOptions{})
}

// trimBucket removes the bucket prefix if present
func trimBucket(objectPath, bucket string) string {
	return strings.TrimPrefix(objectPath, bucket+"/")
}
