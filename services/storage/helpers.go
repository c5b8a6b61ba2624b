package storage

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pkg/errors"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/services/storage/aws_client"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendR2    = "r2"
	BackendMinio = "minio"
)

// NewS3StorageService creates a StorageService configured for AWS S3 or an S3-compatible endpoint
func NewS3StorageService(awsRegion, endpoint, accessKeyID, accessKeySecret, bucketName string) interfaces.StorageService {
	awsCfg := &aws.Config{
		Region:      aws.String(awsRegion),
		Credentials: credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
	}
	if endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	return NewStorageService(aws_client.NewS3Client(awsCfg), StorageConfig{
		BucketName: bucketName,
	})
}

// NewR2StorageService creates a StorageService configured for Cloudflare R2
func NewR2StorageService(accountID, accessKeyID, accessKeySecret, bucketName string) interfaces.StorageService {
	r2Client := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       accountID,
		AccessKeyID:     accessKeyID,
		AccessKeySecret: accessKeySecret,
	})

	return NewStorageService(r2Client, StorageConfig{
		BucketName: bucketName,
	})
}

// NewFromConfig builds the raw artifact store selected by RAW_STORAGE_BACKEND.
func NewFromConfig(cfg *config.StorageConfig) (interfaces.StorageService, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocalStorageService(cfg.LocalPath)
	case BackendS3:
		return NewS3StorageService(cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket), nil
	case BackendR2:
		if cfg.R2AccountID == "" {
			return nil, errors.New("CLOUDFLARE_R2_ACCOUNT_ID is required for the r2 backend")
		}
		return NewR2StorageService(cfg.R2AccountID, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket), nil
	case BackendMinio:
		if cfg.Endpoint == "" {
			return nil, errors.New("RAW_STORAGE_ENDPOINT is required for the minio backend")
		}
		return NewMinioStorageService(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket, cfg.UseSSL)
	default:
		return nil, errors.Errorf("unknown RAW_STORAGE_BACKEND %q", cfg.Backend)
	}
}
