/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config names the connection parameters for an S3-compatible bucket
// (AWS itself, or MinIO/Ceph's S3 gateway via Endpoint+ForcePathStyle).
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

// S3Backend implements Backend against a bucket. S3 has no append API, so
// AppendObject reads the whole object back and rewrites it — the same
// buffer-and-replace tradeoff memcp's S3Storage documents for its own log
// segments.
type S3Backend struct {
	cfg S3Config

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func NewS3Backend(cfg S3Config) *S3Backend {
	return &S3Backend{cfg: cfg}
}

func (b *S3Backend) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opened {
		return nil
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if b.cfg.Region != "" {
		opts = append(opts, config.WithRegion(b.cfg.Region))
	}
	if b.cfg.AccessKeyID != "" && b.cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(b.cfg.AccessKeyID, b.cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("persist: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if b.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(b.cfg.Endpoint) })
	}
	if b.cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	b.client = s3.NewFromConfig(awsCfg, s3Opts...)
	b.opened = true
	return nil
}

func (b *S3Backend) key(name string) string { return b.cfg.Prefix + "/" + name }

func (b *S3Backend) ReadObject(name string) ([]byte, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		return nil, nil // absent object: same "no prior state" contract as FileBackend
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *S3Backend) WriteObject(name string, data []byte) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	_, err := b.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (b *S3Backend) AppendObject(name string, data []byte) error {
	existing, err := b.ReadObject(name)
	if err != nil {
		return err
	}
	return b.WriteObject(name, memBuffer(existing, data))
}

func (b *S3Backend) TruncateObject(name string) error {
	return b.WriteObject(name, nil)
}
