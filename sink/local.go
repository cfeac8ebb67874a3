// Package sink implements the external blob destinations backup SSTs are
// uploaded to.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// localSink is the filesystem backend: local://path.
type localSink struct {
	dir string
}

func newLocalSink(dir string) *localSink { return &localSink{dir: dir} }

func (s *localSink) URI() string { return "local://" + s.dir }

func (s *localSink) Create(_ context.Context, name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, cos.NewOtherError("local sink: mkdir %s: %v", s.dir, err)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil, cos.ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return nil, cos.NewOtherError("local sink: stat %s: %v", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, cos.ErrAlreadyExists
		}
		return nil, cos.NewOtherError("local sink: create %s: %v", path, err)
	}
	return f, nil
}
