package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sshcollectorpro/apcounter/internal/config"
)

// MinioWriter MinIO 对象存储写入
type MinioWriter struct {
	client        *minio.Client
	endpoint      string
	bucket        string
	bucketEnsured bool
}

// NewMinioWriter 创建客户端；不做网络访问，连通性在首次写入时校验
func NewMinioWriter(cfg *config.Config) (*MinioWriter, error) {
	endpoint := cfg.MinioEndpoint()
	if endpoint == "" {
		return nil, errors.New("minio host/port not configured")
	}
	bucket := strings.TrimSpace(cfg.Storage.Minio.Bucket)
	if bucket == "" {
		return nil, errors.New("minio bucket not configured")
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.Storage.Minio.AccessKey, cfg.Storage.Minio.SecretKey, ""),
		Secure:    cfg.Storage.Minio.Secure,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client initialization failed: %w", err)
	}
	return &MinioWriter{client: client, endpoint: endpoint, bucket: bucket}, nil
}

// Write 将内容写入 MinIO，失败按 2s/4s 退避重试
func (w *MinioWriter) Write(ctx context.Context, meta Meta, data []byte, contentType string) (Object, error) {
	if err := w.fastConnectivityCheck(ctx); err != nil {
		return Object{}, fmt.Errorf("minio connectivity failed to %s: %w", w.endpoint, err)
	}
	if !w.bucketEnsured {
		if err := w.ensureBucket(ctx); err != nil {
			return Object{}, fmt.Errorf("minio ensure bucket failed: %w", err)
		}
		w.bucketEnsured = true
	}

	objectName := objectPath(meta)
	ct := contentTypeOr(contentType)

	var lastErr error
	for _, backoff := range []time.Duration{0, 2 * time.Second, 4 * time.Second} {
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return Object{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
		_, err := w.client.PutObject(ctx, w.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: ct})
		if err == nil {
			return Object{
				URI:         "minio://" + path.Join(w.bucket, objectName),
				Size:        int64(len(data)),
				Checksum:    checksum(data),
				ContentType: ct,
			}, nil
		}
		lastErr = err
	}
	return Object{}, fmt.Errorf("minio put object failed after retries: %w", lastErr)
}

// fastConnectivityCheck 使用 TCP 直连做快速连通性校验
func (w *MinioWriter) fastConnectivityCheck(ctx context.Context) error {
	d := &net.Dialer{Timeout: 3 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", w.endpoint)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (w *MinioWriter) ensureBucket(ctx context.Context) error {
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{})
}
