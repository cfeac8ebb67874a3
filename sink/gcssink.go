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

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// gcsSink uploads to Google Cloud Storage via cloud.google.com/go/storage.
type gcsSink struct {
	bucket string
	prefix string
	client *storage.Client
}

func newGCSSink(u *url.URL) (*gcsSink, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, cos.NewOtherError("gcs sink: new client: %v", err)
	}
	return &gcsSink{bucket: u.Host, prefix: strings.TrimPrefix(u.Path, "/"), client: client}, nil
}

func (s *gcsSink) URI() string { return "gcs://" + s.bucket + "/" + s.prefix }

func (s *gcsSink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return joinPath(s.prefix, name)
}

func (s *gcsSink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	key := s.key(name)
	obj := s.client.Bucket(s.bucket).Object(key)
	// DoesNotExist precondition makes the write itself refuse to overwrite,
	// rather than racing a separate existence check.
	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	return &gcsWriter{w: w}, nil
}

type gcsWriter struct {
	w *storage.Writer
}

func (w *gcsWriter) Write(p []byte) (int, error) { return w.w.Write(p) }

func (w *gcsWriter) Close() error {
	err := w.w.Close()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 412 { // precondition failed
		return cos.ErrAlreadyExists
	}
	return err
}
