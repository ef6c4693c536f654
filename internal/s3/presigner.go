package s3

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FilePresigner hands out short-lived upload URLs for user pictures.
// The core only validates the declared size; storage itself is the
// bucket's problem.
type FilePresigner struct {
	S3PresignClient *s3.PresignClient
	BucketName      string
}

func NewFilePresigner() (*FilePresigner, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	region := os.Getenv("AWS_REGION")
	bucketName := os.Getenv("S3_BUCKET_NAME")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	usePathStyle := os.Getenv("S3_USE_PATH_STYLE") == "true"

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithRegion(region),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)

	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})

	return &FilePresigner{
		S3PresignClient: s3.NewPresignClient(s3Client),
		BucketName:      bucketName,
	}, nil
}

// GeneratePresignedUploadURL signs a PUT for the object key. The size
// is signed into the request so the blob cannot exceed what was
// validated.
func (p *FilePresigner) GeneratePresignedUploadURL(objectKey string, size int64) (string, error) {
	request, err := p.S3PresignClient.PresignPutObject(
		context.TODO(),
		&s3.PutObjectInput{
			Bucket:        aws.String(p.BucketName),
			Key:           aws.String(objectKey),
			ContentLength: aws.Int64(size),
		},
		func(opts *s3.PresignOptions) {
			opts.Expires = 15 * time.Minute
		},
	)

	if err != nil {
		return "", err
	}

	return request.URL, nil
}
