/*
DESCRIPTION
  archive.go - SegmentArchiver: durable off-box storage for completed live
  segments, so a DVR playlist can serve content older than its in-memory
  window and so archived VOD can be assembled after the fact.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024-2026 the Australian Ocean Lab (AusOcean).

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  This is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY
  or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public
  License for more details.

  You should have received a copy of the GNU General Public License in
  gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

// Package archive persists completed live segments to durable storage.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// SegmentArchiver persists and retrieves completed live segments by
// stream name and segment index.
type SegmentArchiver interface {
	Archive(ctx context.Context, stream string, seg *livemodel.LiveSegment) error
	Retrieve(ctx context.Context, stream string, index int64) ([]byte, error)
	Delete(ctx context.Context, stream string, index int64) error
}

// S3Config configures an S3Archiver.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // Non-empty for S3-compatible services (e.g. MinIO).
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
}

// S3Archiver is a SegmentArchiver backed by Amazon S3 or an
// S3-compatible object store.
type S3Archiver struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Archiver constructs an S3Archiver, loading AWS credentials either
// from the supplied static keys or from the default provider chain.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "failed to load AWS config", err)
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) { o.UsePathStyle = cfg.Endpoint != "" },
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}

	return &S3Archiver{client: s3.NewFromConfig(awsCfg, opts...), cfg: cfg}, nil
}

func (a *S3Archiver) key(stream string, index int64) string {
	return fmt.Sprintf("%s%s/%012d.ts", a.cfg.KeyPrefix, stream, index)
}

// Archive uploads seg's payload under a key derived from stream and the
// segment's index.
func (a *S3Archiver) Archive(ctx context.Context, stream string, seg *livemodel.LiveSegment) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(a.key(stream, seg.Index)),
		Body:        bytes.NewReader(seg.Data),
		ContentType: aws.String("video/mp2t"),
	})
	if err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "s3 archive upload failed", err)
	}
	return nil
}

// Retrieve downloads the segment at index for stream.
func (a *S3Archiver) Retrieve(ctx context.Context, stream string, index int64) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.key(stream, index)),
	})
	if err != nil {
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "s3 archive download failed", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "s3 archive read failed", err)
	}
	return buf.Bytes(), nil
}

// Delete removes the segment at index for stream.
func (a *S3Archiver) Delete(ctx context.Context, stream string, index int64) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.key(stream, index)),
	})
	if err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "s3 archive delete failed", err)
	}
	return nil
}
