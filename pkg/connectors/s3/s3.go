// Package s3 reads and writes tables as S3 objects and moves files to and
// from buckets.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	"github.com/admariner/wrangles/pkg/connectors/file"
	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/utils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

// Conn holds credentials and endpoint settings. Empty values fall back to
// the AWS_* environment variables.
type Conn struct {
	AccessKey       string  `mapstructure:"access_key"`
	SecretAccessKey string  `mapstructure:"secret_access_key"`
	Region          string  `mapstructure:"region"`
	Endpoint        string  `mapstructure:"endpoint"`
	Retries         *uint64 `mapstructure:"retries"`
}

type readOptions struct {
	Conn        `mapstructure:",squash"`
	Bucket      string `mapstructure:"bucket" validate:"required"`
	Key         string `mapstructure:"key" validate:"required"`
	file.Format `mapstructure:",squash"`
}

type writeOptions struct {
	Conn        `mapstructure:",squash"`
	Bucket      string   `mapstructure:"bucket" validate:"required"`
	Key         string   `mapstructure:"key" validate:"required"`
	Columns     []string `mapstructure:"columns"`
	file.Format `mapstructure:",squash"`
}

type transferOptions struct {
	Conn   `mapstructure:",squash"`
	Bucket string   `mapstructure:"bucket" validate:"required"`
	File   []string `mapstructure:"file" validate:"required,min=1"`
	Key    []string `mapstructure:"key"`
}

// Tree is the `s3` connector.
func Tree() registry.Map {
	return registry.Map{
		"read":     registry.Reader{Fn: Read},
		"write":    registry.Writer{Fn: Write},
		"upload":   registry.Map{"run": registry.Action{Fn: Upload}},
		"download": registry.Map{"run": registry.Action{Fn: Download}},
	}
}

func (c Conn) session() (*session.Session, error) {
	cfg := &aws.Config{
		Region:      aws.String(c.Region),
		Credentials: credentials.NewEnvCredentials(),
	}
	if c.Region == "" {
		cfg.Region = aws.String(utils.GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1"))
	}
	if c.AccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(c.AccessKey, c.SecretAccessKey, "")
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("S3_ENDPOINT")
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	s, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}
	return s, nil
}

func (c Conn) retry(ctx context.Context, op func() error) error {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), utils.Deref(c.Retries, 3))
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var re *w.RemoteAccessError
		if errors.As(err, &re) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// classify turns authorization and lookup failures into typed errors.
func classify(err error, bucket, key string) error {
	var rf awserr.RequestFailure
	if errors.As(err, &rf) {
		switch rf.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &w.RemoteAccessError{Msg: "Access Denied", StatusCode: rf.StatusCode(), Err: err}
		case http.StatusNotFound:
			return &w.RemoteAccessError{Msg: fmt.Sprintf("File not found: s3://%s/%s", bucket, key), StatusCode: rf.StatusCode(), Err: err}
		}
	}
	var ae awserr.Error
	if errors.As(err, &ae) && (ae.Code() == awss3.ErrCodeNoSuchKey || ae.Code() == awss3.ErrCodeNoSuchBucket) {
		return &w.RemoteAccessError{Msg: fmt.Sprintf("File not found: s3://%s/%s", bucket, key), StatusCode: http.StatusNotFound, Err: err}
	}
	return err
}

func (c Conn) get(ctx context.Context, bucket, key string) ([]byte, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	downloader := s3manager.NewDownloader(sess)
	var out []byte
	s := time.Now()
	err = c.retry(ctx, func() error {
		buf := &aws.WriteAtBuffer{}
		_, err := downloader.DownloadWithContext(ctx, buf, &awss3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return classify(err, bucket, key)
		}
		out = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading from s3: %w", err)
	}
	d := time.Since(s)
	zerolog.Ctx(ctx).Debug().Str("key", key).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("downloaded file from s3")
	return out, nil
}

func (c Conn) put(ctx context.Context, bucket, key string, data []byte) error {
	sess, err := c.session()
	if err != nil {
		return err
	}
	uploader := s3manager.NewUploader(sess)
	s := time.Now()
	err = c.retry(ctx, func() error {
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return classify(err, bucket, key)
	})
	if err != nil {
		return fmt.Errorf("error uploading to s3: %w", err)
	}
	d := time.Since(s)
	zerolog.Ctx(ctx).Debug().Str("key", key).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("uploaded file to s3")
	return nil
}

// Read loads an object as a table; the format follows the key extension.
func Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	var opts readOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	data, err := opts.get(ctx, opts.Bucket, opts.Key)
	if err != nil {
		return nil, err
	}
	return file.Decode(opts.Key, bytes.NewReader(data), opts.Format)
}

// Write stores the table as an object.
func Write(ctx context.Context, f *w.Frame, p registry.Params) error {
	var opts writeOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	out, err := file.Columns(f, opts.Columns)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := file.Encode(opts.Key, &buf, out, opts.Format); err != nil {
		return err
	}
	return opts.put(ctx, opts.Bucket, opts.Key, buf.Bytes())
}

func keys(o transferOptions, name func(string) string) ([]string, error) {
	if len(o.Key) == 0 {
		out := make([]string, len(o.File))
		for i, f := range o.File {
			out[i] = name(f)
		}
		return out, nil
	}
	if len(o.Key) != len(o.File) {
		return nil, w.Configf("file and key must have the same number of entries")
	}
	return o.Key, nil
}

// Upload copies local files into the bucket. Keys default to the file
// base names.
func Upload(ctx context.Context, p registry.Params) error {
	var opts transferOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	ks, err := keys(opts, filepath.Base)
	if err != nil {
		return err
	}
	for i, name := range opts.File {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		if err := opts.put(ctx, opts.Bucket, ks[i], data); err != nil {
			return err
		}
	}
	logger.Info().Int("files", len(opts.File)).Str("bucket", opts.Bucket).Msg("uploaded files to s3")
	return nil
}

// Download copies objects to local files. Keys default to the file names.
func Download(ctx context.Context, p registry.Params) error {
	var opts transferOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	ks, err := keys(opts, filepath.Base)
	if err != nil {
		return err
	}
	for i, name := range opts.File {
		data, err := opts.get(ctx, opts.Bucket, ks[i])
		if err != nil {
			return err
		}
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
