// Package backup archives encrypted snapshots of the attendance database to
// S3-compatible storage, so a semester's records survive the box under the
// lectern dying.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds archiver configuration. Passphrase encrypts snapshots
// before they leave the host.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
}

// Archiver snapshots the SQLite database, encrypts the copy, and uploads
// it. Disabled (Enabled() == false) unless S3 and a passphrase are
// configured.
type Archiver struct {
	cfg     Config
	db      *sql.DB
	client  s3Client
	logger  *slog.Logger
	backoff time.Duration
}

func NewArchiver(cfg Config, db *sql.DB, logger *slog.Logger) *Archiver {
	a := &Archiver{cfg: cfg, db: db, logger: logger, backoff: time.Second}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		a.client = newS3Client(cfg.S3)
	}
	return a
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (a *Archiver) Enabled() bool {
	return a.client != nil
}

// Run takes one snapshot and uploads it, retrying transient upload
// failures with exponential backoff. The object key is
// attendance/{date}/{uuid}.db.enc.
func (a *Archiver) Run(ctx context.Context) error {
	if !a.Enabled() {
		return fmt.Errorf("archiver not configured")
	}

	tmpDir, err := os.MkdirTemp("", "rollcall-backup-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	// VACUUM INTO produces a consistent copy without blocking writers.
	if _, err := a.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", snapshot)); err != nil {
		return fmt.Errorf("snapshot db: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	encrypted := snapshot + ".enc"
	if err := EncryptFile(snapshot, encrypted, a.cfg.Passphrase, salt); err != nil {
		return err
	}

	key := fmt.Sprintf("attendance/%s/%s.db.enc",
		time.Now().UTC().Format("2006-01-02"), uuid.NewString())

	backoff := retry.WithMaxRetries(5, retry.NewExponential(a.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(encrypted)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.cfg.S3.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			a.logger.Warn("upload attempt failed", "key", key, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	a.logger.Info("snapshot uploaded", "bucket", a.cfg.S3.Bucket, "key", key)
	return nil
}
