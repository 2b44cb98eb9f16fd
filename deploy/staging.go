// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package deploy

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/go-logr/logr"
	"google.golang.org/api/option"

	"github.com/adk-starter/agentkit/logging"
)

const gcsScheme = "gs://"

// NormalizeBucket returns the bucket with the gs:// prefix.
func NormalizeBucket(bucket string) string {
	if bucket == "" || strings.HasPrefix(bucket, gcsScheme) {
		return bucket
	}
	return gcsScheme + bucket
}

// BucketName strips the gs:// prefix and any object path.
func BucketName(bucket string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(bucket, gcsScheme), "/")
	return name
}

// DefaultBucket is the staging bucket used when none is configured.
func DefaultBucket(project string) string {
	return gcsScheme + project + "-vertex-agents"
}

// Stager uploads deployment artifacts to a Cloud Storage bucket.
type Stager struct {
	client  *storage.Client
	bucket  string
	project string
	region  string
}

// NewStager creates a Stager for bucket, or the project's default bucket
// when bucket is empty.
func NewStager(ctx context.Context, project, region, bucket string, opts ...option.ClientOption) (*Stager, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if bucket == "" {
		bucket = DefaultBucket(project)
	}
	return &Stager{client: client, bucket: BucketName(bucket), project: project, region: region}, nil
}

// Bucket returns the staging bucket URI.
func (s *Stager) Bucket() string { return NormalizeBucket(s.bucket) }

func (s *Stager) Close() error { return s.client.Close() }

// EnsureBucket creates the bucket in the stager's region when it does not
// exist. Creation failures are logged, not returned: the bucket may exist in
// a project the caller cannot list.
func (s *Stager) EnsureBucket(ctx context.Context) {
	log := logr.FromContextOrDiscard(ctx)
	b := s.client.Bucket(s.bucket)
	_, err := b.Attrs(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		log.Info("Could not check staging bucket", "bucket", s.Bucket(), "error", err.Error())
		return
	}
	log.Info("Creating staging bucket", "bucket", s.Bucket(), "location", s.region)
	if err := b.Create(ctx, s.project, &storage.BucketAttrs{Location: s.region}); err != nil {
		logging.Warn(log, "failed to create staging bucket", "bucket", s.Bucket(), "error", err.Error())
	}
}

// Upload writes r to object and returns its gs:// URI.
func (s *Stager) Upload(ctx context.Context, object string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	uri := s.Bucket() + "/" + object
	logr.FromContextOrDiscard(ctx).Info("Uploaded", "uri", uri)
	return uri, nil
}

// UploadFile uploads a local file.
func (s *Stager) UploadFile(ctx context.Context, object, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.Upload(ctx, object, f)
}

// UploadDir archives dir with ArchiveDir and uploads the tarball.
func (s *Stager) UploadDir(ctx context.Context, object, dir string) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(ArchiveDir(pw, dir))
	}()
	uri, err := s.Upload(ctx, object, pr)
	pr.CloseWithError(err)
	return uri, err
}

var skippedDirs = map[string]bool{
	".git": true, "__pycache__": true, ".venv": true, "venv": true, "node_modules": true,
}

// ArchiveDir writes a gzipped tarball of dir to w. Paths in the archive are
// relative to dir; version control and virtualenv directories are skipped.
func ArchiveDir(w io.Writer, dir string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = path.Clean(filepath.ToSlash(rel))
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", dir, err)
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
