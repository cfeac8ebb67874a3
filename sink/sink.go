// Package sink implements the external blob destinations backup SSTs are
// uploaded to: one base provider type per backend plus an interface-guard
// idiom, covering local disk and the s3/gcs/az cloud backends.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sink

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// Sink is an external, append-only, overwrite-refusing blob destination.
// Each shard writes distinct file names so no cross-worker coordination is
// required.
type Sink interface {
	// Create opens a new object for writing. It MUST fail with
	// cos.ErrAlreadyExists if name already exists at this destination.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// URI is the sink's own resolved location, for logging.
	URI() string
}

// Resolve parses a sink_uri ("scheme://path") and returns the matching
// backend. Rejects construction if sinkURI is empty or the scheme is
// unrecognized.
func Resolve(sinkURI string) (Sink, error) {
	if sinkURI == "" {
		return nil, cos.NewOtherError("empty sink_uri")
	}
	u, err := url.Parse(sinkURI)
	if err != nil {
		return nil, cos.NewOtherError("invalid sink_uri %q: %v", sinkURI, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "local", "":
		return newLocalSink(u.Path), nil
	case "s3":
		return newS3Sink(u)
	case "gcs":
		return newGCSSink(u)
	case "az":
		return newAzureSink(u)
	default:
		return nil, cos.NewOtherError("unsupported sink scheme %q", u.Scheme)
	}
}

func joinPath(base, name string) string {
	if strings.HasSuffix(base, "/") {
		return base + name
	}
	return fmt.Sprintf("%s/%s", base, name)
}
