package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Store persists local copies of outbound attachments keyed by message id.
// The provider does not allow re-fetching bytes by the handle it issues
// for uploads, so the copy written here is the only durable source.
type Store interface {
	Put(messageID string, data []byte, contentType string) error
	Get(messageID string) ([]byte, error)
	Exists(messageID string) bool
}

// DiskStore keeps attachment copies on the local filesystem
type DiskStore struct {
	dir string
}

// NewDiskStore creates a disk store rooted at dir
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = filepath.Join(".", "uploads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Put writes attachment bytes for a message
func (s *DiskStore) Put(messageID string, data []byte, contentType string) error {
	return os.WriteFile(filepath.Join(s.dir, messageID), data, 0o644)
}

// Get reads attachment bytes for a message
func (s *DiskStore) Get(messageID string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, messageID))
}

// Exists reports whether an attachment copy is stored for a message
func (s *DiskStore) Exists(messageID string) bool {
	_, err := os.Stat(filepath.Join(s.dir, messageID))
	return err == nil
}

// S3Store keeps attachment copies in an S3-compatible bucket
type S3Store struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3StoreFromEnv creates an S3 store from S3_* environment variables.
// Returns an error when the configuration is missing so callers can fall
// back to disk storage.
func NewS3StoreFromEnv() (*S3Store, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucket := os.Getenv("S3_BUCKET")

	if accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("S3 configuration missing")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: bucket,
		prefix: "attachments/",
	}, nil
}

// Put writes attachment bytes for a message
func (s *S3Store) Put(messageID string, data []byte, contentType string) error {
	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + messageID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload attachment: %w", err)
	}
	return nil
}

// Get reads attachment bytes for a message
func (s *S3Store) Get(messageID string) ([]byte, error) {
	out, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + messageID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Exists reports whether an attachment copy is stored for a message
func (s *S3Store) Exists(messageID string) bool {
	_, err := s.client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + messageID),
	})
	return err == nil
}
