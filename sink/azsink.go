// Package sink implements the external blob destinations backup SSTs are
// uploaded to.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sink

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/coreshard/kvbackup/cmn/cos"
)

// azureSink uploads to Azure Blob Storage using a SharedKeyCredential built
// from the standard AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY env vars. One
// azblob.Client is built against the account's service URL and reused for
// every upload, the same client UploadStream/DeleteObj operate against.
type azureSink struct {
	client       *azblob.Client
	containerURL string
	container    string
	prefix       string
}

const (
	azAccNameEnvVar = "AZURE_STORAGE_ACCOUNT"
	azAccKeyEnvVar  = "AZURE_STORAGE_KEY"
)

func newAzureSink(u *url.URL) (*azureSink, error) {
	accName := os.Getenv(azAccNameEnvVar)
	accKey := os.Getenv(azAccKeyEnvVar)
	if accName == "" || accKey == "" {
		return nil, cos.NewOtherError("az sink: %s/%s must be set", azAccNameEnvVar, azAccKeyEnvVar)
	}
	cred, err := azblob.NewSharedKeyCredential(accName, accKey)
	if err != nil {
		return nil, cos.NewOtherError("az sink: bad credentials: %v", err)
	}
	endpoint := "https://" + accName + ".blob.core.windows.net"
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, cos.NewOtherError("az sink: new client: %v", err)
	}
	return &azureSink{
		client:       client,
		containerURL: endpoint + "/" + u.Host,
		container:    u.Host,
		prefix:       strings.TrimPrefix(u.Path, "/"),
	}, nil
}

func (s *azureSink) URI() string { return "az://" + s.containerURL }

func (s *azureSink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return joinPath(s.prefix, name)
}

// azureWriter buffers in memory and uploads on Close via the account
// client's UploadBuffer, the same container+blob-name call shape
// UploadStream/DeleteObj use, with an If-None-Match:* precondition added
// so a second Close for the same name fails instead of overwriting.
type azureWriter struct {
	ctx       context.Context
	client    *azblob.Client
	container string
	key       string
	buf       []byte
}

func (s *azureSink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return &azureWriter{ctx: ctx, client: s.client, container: s.container, key: s.key(name)}, nil
}

func (w *azureWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *azureWriter) Close() error {
	etagNone := azcore.ETagAny
	_, err := w.client.UploadBuffer(w.ctx, w.container, w.key, w.buf, &azblob.UploadBufferOptions{
		AccessConditions: &azblob.AccessConditions{
			ModifiedAccessConditions: &azblob.ModifiedAccessConditions{
				IfNoneMatch: &etagNone,
			},
		},
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobAlreadyExists) || bloberror.HasCode(err, bloberror.ConditionNotMet) {
			return cos.ErrAlreadyExists
		}
		return cos.NewOtherError("az sink: upload %s: %v", w.key, err)
	}
	return nil
}
