package persistence

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// S3Options configures the S3 backup target.
type S3Options struct {
	Bucket    string
	Region    string
	KeyPrefix string
	AccessID  string
	AccessKey string
}

// S3 wraps a File adapter for day-to-day reads/writes and additionally
// ships labeled backups to an S3 bucket, mirroring the credential
// loading and retry discipline of the teacher's kss.S3 driver
// (core/backend/kss/s3.go), but scoped to backup/restore only.
type S3 struct {
	*File
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds an S3 backup target layered on top of a File adapter for
// the primary on-disk state.
func NewS3(fileOpts FileOptions, s3Opts S3Options) (*S3, error) {
	if s3Opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must not be empty")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if s3Opts.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s3Opts.Region))
	}
	if s3Opts.AccessID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Opts.AccessID, s3Opts.AccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}

	return &S3{
		File:   NewFile(fileOpts),
		client: s3.NewFromConfig(cfg),
		bucket: s3Opts.Bucket,
		prefix: s3Opts.KeyPrefix,
	}, nil
}

// Backup first performs the local file backup, then uploads the current
// state to S3 under a generated (or caller-supplied) key, retrying
// transient failures with exponential backoff. It returns the S3 object
// key; Restore with that key reads from S3 unless a local file of the
// same name exists.
func (s *S3) Backup(label string) resultx.Result[string] {
	local := s.File.Backup(label)
	if !local.IsOk() {
		return local
	}
	key := label
	if key == "" {
		key = uuid.New().String()
	}
	objectKey := s.prefix + key + ".json"

	state := s.File.Load()
	data, err := state.Unwrap()
	if err != nil {
		return resultx.Err[string](err)
	}
	body, jsonErr := json.Marshal(data)
	if jsonErr != nil {
		return resultx.Errf[string](resultx.KindIO, "cannot marshal state for s3 backup: %v", jsonErr)
	}

	upload := func() error {
		_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(objectKey),
			Body:   bytes.NewReader(body),
		})
		return err
	}
	if err := backoff.Retry(upload, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return resultx.Errf[string](resultx.KindIO, "cannot upload backup to s3: %v", err)
	}
	return resultx.Ok(objectKey)
}

// Restore prefers a local backup id; if none is found it falls back to
// downloading the object from S3.
func (s *S3) Restore(id string) resultx.Result[State] {
	local := s.File.Restore(id)
	if local.IsOk() {
		return local
	}

	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return resultx.Errf[State](resultx.KindNotFound, "cannot fetch s3 backup %q: %v", id, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot read s3 backup body: %v", err)
	}
	var state State
	if err := json.Unmarshal(body, &state); err != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot parse s3 backup body: %v", err)
	}
	if err := s.File.writeAtomic(state); err != nil {
		return resultx.Errf[State](resultx.KindIO, "cannot restore s3 backup to disk: %v", err)
	}
	return resultx.Ok(state)
}
