// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/leseb/fileindexer/pkg/filestore"
)

func init() {
	filestore.Providers.Register("s3", func(ctx context.Context, params map[string]string) (filestore.Source, error) {
		return New(ctx, Options{
			Bucket:   params["bucket"],
			Region:   params["region"],
			Prefix:   params["prefix"],
			Endpoint: params["endpoint"],
		})
	})
}

// compile-time check
var _ filestore.Source = (*Store)(nil)

// Options configures the S3 backend.
type Options struct {
	Bucket   string // required
	Region   string // e.g. "us-east-1"
	Prefix   string // key prefix, e.g. "documents/"
	Endpoint string // custom endpoint for MinIO compatibility
}

// Store implements filestore.Source backed by S3 (or MinIO). Source keys
// are object keys with Prefix removed.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3-backed Store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &Store{
		client: s3.NewFromConfig(cfg, s3Opts...),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func (s *Store) objectKey(key string) string {
	return s.prefix + strings.TrimPrefix(key, "/")
}

// List pages through ListObjectsV2 under prefix. Directory markers are skipped.
func (s *Store) List(ctx context.Context, prefix string) ([]filestore.Object, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	var objects []filestore.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, filestore.Object{
				Key:     key,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Stat issues a HeadObject.
func (s *Store) Stat(ctx context.Context, key string) (filestore.Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return filestore.Object{}, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
		}
		return filestore.Object{}, fmt.Errorf("head object: %w", err)
	}
	return filestore.Object{
		Key:     key,
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// Open streams the object body.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Close is a no-op for the S3 store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// isNotFound checks whether the error indicates a missing S3 object.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	// Some S3-compatible services return a generic "NotFound" status.
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
