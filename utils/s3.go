// utils/s3.go
package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var backupClient *s3.Client
var backupBucket string
var backupBaseURL string

// InitBackupStorage configures the optional off-site backup bucket from the
// environment. Leaving BACKUP_S3_BUCKET unset disables uploads entirely;
// that is not an error, backups then stay local only.
func InitBackupStorage() error {
	backupBucket = os.Getenv("BACKUP_S3_BUCKET")
	if backupBucket == "" {
		return nil
	}

	endpoint := os.Getenv("BACKUP_S3_ENDPOINT")
	accessKeyID := os.Getenv("BACKUP_S3_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("BACKUP_S3_ACCESS_KEY_SECRET")
	region := os.Getenv("BACKUP_S3_REGION")
	if region == "" {
		region = "auto"
	}
	backupBaseURL = fmt.Sprintf("%s/%s", endpoint, backupBucket)

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)))
	}
	if endpoint != "" {
		opts = append(opts, config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{URL: endpoint}, nil
			}),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return fmt.Errorf("failed to load backup storage config: %w", err)
	}

	backupClient = s3.NewFromConfig(cfg)
	return nil
}

// BackupStorageEnabled reports whether off-site uploads are configured.
func BackupStorageEnabled() bool {
	return backupClient != nil
}

// UploadBackupFile pushes a local backup file to the bucket under key and
// returns the object URL.
func UploadBackupFile(path, key string) (string, error) {
	if backupClient == nil {
		return "", fmt.Errorf("backup storage not configured")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	_, err = backupClient.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(backupBucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	return fmt.Sprintf("%s/%s", backupBaseURL, key), nil
}
