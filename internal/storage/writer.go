package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sshcollectorpro/apcounter/internal/config"
	"github.com/sshcollectorpro/apcounter/pkg/logger"
)

// Writer 归档写入器
type Writer interface {
	Write(ctx context.Context, meta Meta, data []byte, contentType string) (Object, error)
}

// Meta 写入元数据，决定归档路径：prefix/<日期_时间>_<run>/<device>/<name>
type Meta struct {
	Prefix string
	RunID  string
	// Started 运行开始时间，同一次运行的对象落在同一目录
	Started time.Time
	Device  string
	// Name 命令或文件名；不含扩展名时追加 .txt
	Name string
}

// Object 写入结果
type Object struct {
	URI         string `json:"uri"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

// New 根据 storage.backend 创建写入器；minio 不可用时回退本地
func New(cfg *config.Config) Writer {
	local := &LocalWriter{BaseDir: cfg.Storage.Local.BaseDir, MkdirIfMissing: cfg.Storage.Local.MkdirIfMissing}
	if cfg.Storage.Backend != "minio" {
		return local
	}
	mw, err := NewMinioWriter(cfg)
	if err != nil {
		logger.Warnf("MinIO backend selected but unavailable, falling back to local: %v", err)
		return local
	}
	return &DelegatingWriter{primary: mw, fallback: local}
}

// DelegatingWriter 主后端失败时写入备用后端
type DelegatingWriter struct {
	primary  Writer
	fallback Writer
}

func (w *DelegatingWriter) Write(ctx context.Context, meta Meta, data []byte, contentType string) (Object, error) {
	obj, err := w.primary.Write(ctx, meta, data, contentType)
	if err == nil {
		return obj, nil
	}
	logger.WithField("name", meta.Name).Warnf("Primary storage write failed, falling back to local: %v", err)
	objLocal, lerr := w.fallback.Write(ctx, meta, data, contentType)
	if lerr != nil {
		return Object{}, fmt.Errorf("primary write failed: %v; local fallback failed: %w", err, lerr)
	}
	return objLocal, nil
}

// LocalWriter 本地文件写入
type LocalWriter struct {
	BaseDir        string
	MkdirIfMissing bool
}

func (w *LocalWriter) Write(ctx context.Context, meta Meta, data []byte, contentType string) (Object, error) {
	baseDir := strings.TrimSpace(w.BaseDir)
	if baseDir == "" {
		baseDir = "./data/archive"
	}
	rel := objectPath(meta)
	fullPath := filepath.Join(baseDir, filepath.FromSlash(rel))

	if w.MkdirIfMissing {
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return Object{}, fmt.Errorf("failed to create dir: %w", err)
		}
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}
	return Object{
		URI:         "file://" + fullPath,
		Size:        int64(len(data)),
		Checksum:    checksum(data),
		ContentType: contentTypeOr(contentType),
	}, nil
}

// objectPath POSIX 风格相对路径，本地与 MinIO 一致
func objectPath(meta Meta) string {
	parts := []string{}
	if p := strings.Trim(strings.TrimSpace(meta.Prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	started := meta.Started
	if started.IsZero() {
		started = time.Now()
	}
	runDir := started.Format("20060102_150405")
	if id := strings.TrimSpace(meta.RunID); id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		runDir += "_" + id
	}
	parts = append(parts, runDir)
	if d := strings.TrimSpace(meta.Device); d != "" {
		parts = append(parts, Slug(d))
	}
	name := Slug(meta.Name)
	if !strings.Contains(name, ".") {
		name += ".txt"
	}
	return path.Join(append(parts, name)...)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func contentTypeOr(ct string) string {
	if ct != "" {
		return ct
	}
	return "text/plain; charset=utf-8"
}

// ApplyLineFilter 按前缀/包含规则移除行（分页提示等）
func ApplyLineFilter(f config.OutputFilterConfig, s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		cmp := ln
		if f.TrimSpace {
			cmp = strings.TrimSpace(cmp)
		}
		if f.CaseInsensitive {
			cmp = strings.ToLower(cmp)
		}
		if !matchesAny(cmp, f.Prefixes, f.CaseInsensitive, strings.HasPrefix) &&
			!matchesAny(cmp, f.Contains, f.CaseInsensitive, strings.Contains) {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

func matchesAny(s string, patterns []string, fold bool, match func(string, string) bool) bool {
	for _, p := range patterns {
		if fold {
			p = strings.ToLower(p)
		}
		if p != "" && match(s, p) {
			return true
		}
	}
	return false
}

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// Slug 文件名安全化
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_").Replace(s)
	s = slugRe.ReplaceAllString(s, "")
	if s == "" {
		s = "unknown"
	}
	return s
}
