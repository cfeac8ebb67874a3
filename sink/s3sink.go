// Package sink implements the external blob destinations backup SSTs are
// uploaded to.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sink

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// s3Sink uploads via manager.Uploader, the aws-sdk-go-v2 facade for
// large multi-part uploads.
type s3Sink struct {
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

func newS3Sink(u *url.URL) (*s3Sink, error) {
	cfg, err := awscfg.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, cos.NewOtherError("s3 sink: load aws config: %v", err)
	}
	client := s3.NewFromConfig(cfg)
	return &s3Sink{
		bucket:   u.Host,
		prefix:   strings.TrimPrefix(u.Path, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *s3Sink) URI() string { return "s3://" + s.bucket + "/" + s.prefix }

func (s *s3Sink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return joinPath(s.prefix, name)
}

func (s *s3Sink) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	var apiErr smithy.APIError
	if errors.As(err, &nf) {
		return false, nil
	}
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

func (s *s3Sink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	key := s.key(name)
	exists, err := s.exists(ctx, key)
	if err != nil {
		return nil, cos.NewOtherError("s3 sink: head %s: %v", key, err)
	}
	if exists {
		return nil, cos.ErrAlreadyExists
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, uerr := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
			Body:   pr,
		})
		pr.CloseWithError(uerr)
		done <- uerr
	}()
	return &s3Writer{pw: pw, done: done}, nil
}

// s3Writer adapts manager.Uploader's io.Reader-based PutObjectInput.Body
// onto the Sink's io.WriteCloser contract via an in-process pipe.
type s3Writer struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *s3Writer) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *s3Writer) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
