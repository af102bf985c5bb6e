// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export writes rendered reports and charts to a local file
// or to a Google Cloud Storage object.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// A Target is a parsed destination. Exactly one of Path and Bucket
// is set.
type Target struct {
	Path string

	Bucket string
	Object string
}

// ParseTarget parses dest, which is either "gs://bucket/object" or a
// local path. The path "-" is standard output.
func ParseTarget(dest string) (Target, error) {
	rest, ok := strings.CutPrefix(dest, "gs://")
	if !ok {
		if dest == "" {
			return Target{}, fmt.Errorf("empty destination")
		}
		return Target{Path: dest}, nil
	}
	bucket, object, _ := strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return Target{}, fmt.Errorf("bad destination %q: want gs://bucket/object", dest)
	}
	return Target{Bucket: bucket, Object: object}, nil
}

func (t Target) String() string {
	if t.Bucket != "" {
		return "gs://" + t.Bucket + "/" + t.Object
	}
	return t.Path
}

// An Option configures Cloud Storage access.
type Option func(*options)

type options struct {
	client []option.ClientOption
	stdout io.Writer
}

// WithAccessToken authenticates with a fixed OAuth2 access token.
func WithAccessToken(token string) Option {
	return WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// WithTokenSource authenticates with ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) { o.client = append(o.client, option.WithTokenSource(ts)) }
}

// WithCredentialsFile authenticates with a service account key file.
func WithCredentialsFile(file string) Option {
	return func(o *options) { o.client = append(o.client, option.WithCredentialsFile(file)) }
}

// WithClientOptions passes opts through to the storage client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.client = append(o.client, opts...) }
}

// WithStdout directs writes to "-" to w.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// Write writes data to dest. Without an explicit credential option,
// Cloud Storage access uses Application Default Credentials.
func Write(ctx context.Context, dest string, data []byte, opts ...Option) error {
	t, err := ParseTarget(dest)
	if err != nil {
		return err
	}
	o := options{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case t.Path == "-":
		_, err := o.stdout.Write(data)
		return err
	case t.Path != "":
		return os.WriteFile(t.Path, data, 0o666)
	}

	client, err := storage.NewClient(ctx, o.client...)
	if err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	defer client.Close()
	w := client.Bucket(t.Bucket).Object(t.Object).NewWriter(ctx)
	w.ContentType = ContentType(t.Object)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("%s: %w", t, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	return nil
}

var contentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".json": "application/json",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".txt":  "text/plain; charset=utf-8",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// ContentType returns the MIME type for an object name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
