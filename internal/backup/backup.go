// Package backup ships encrypted snapshots of the SQLite inventory to
// S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

const keyTimeFormat = "2006-01-02T150405Z"

// ObjectStore is the subset of the S3 client used here.
type ObjectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether enough is configured to reach a bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// NewS3Client builds a path-style client, which works for R2, MinIO and AWS.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

type Config struct {
	Bucket     string
	Prefix     string
	Passphrase string
	Interval   time.Duration
	// Retain is how many snapshots survive a prune. Zero keeps all.
	Retain int
}

// Manager takes periodic snapshots of a database and prunes old ones.
type Manager struct {
	mu     sync.Mutex
	db     *sql.DB
	client ObjectStore
	cfg    Config
	now    func() time.Time
	logger *slog.Logger

	last   time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(db *sql.DB, client ObjectStore, cfg Config, logger *slog.Logger) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return &Manager{
		db:     db,
		client: client,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Start begins the snapshot loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Snapshot(ctx); err != nil {
					m.logger.Error("scheduled snapshot failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the snapshot loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// LastSnapshot returns when the last successful snapshot finished.
func (m *Manager) LastSnapshot() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Manager) key(t time.Time) string {
	name := fmt.Sprintf("fridgly-%s.db.enc", t.Format(keyTimeFormat))
	if m.cfg.Prefix == "" {
		return name
	}
	return m.cfg.Prefix + "/" + name
}

// Snapshot copies the database, encrypts it, uploads it and prunes old
// snapshots. It returns the object key written.
func (m *Manager) Snapshot(ctx context.Context) (string, error) {
	start := m.now()

	dir, err := os.MkdirTemp("", "fridgly-snapshot-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	copyPath := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", copyPath); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}
	plain, err := os.ReadFile(copyPath)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plain, m.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := m.key(start)
	if _, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	}); err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
	m.logger.Info("snapshot uploaded", "key", key, "bytes", len(sealed), "duration", m.now().Sub(start))

	if err := m.Prune(ctx); err != nil {
		m.logger.Warn("prune snapshots", "error", err)
	}
	return key, nil
}

// List returns snapshot keys under the prefix, oldest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if m.cfg.Prefix != "" {
		prefix = m.cfg.Prefix + "/"
	}

	var keys []string
	var token *string
	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.cfg.Bucket),
			Prefix:            aws.String(prefix + "fridgly-"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	// Keys embed a sortable UTC timestamp.
	sort.Strings(keys)
	return keys, nil
}

// Prune deletes all but the newest Retain snapshots.
func (m *Manager) Prune(ctx context.Context) error {
	if m.cfg.Retain <= 0 {
		return nil
	}
	keys, err := m.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= m.cfg.Retain {
		return nil
	}

	var errs []error
	for _, key := range keys[:len(keys)-m.cfg.Retain] {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Fetch downloads and decrypts a snapshot into dst, then checks that the
// result is a sound SQLite database. The live database is never touched.
func (m *Manager) Fetch(ctx context.Context, key, dst string) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	plain, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, plain, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	restored, err := sql.Open("sqlite", dst)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer restored.Close()

	var integrity string
	if err := restored.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}
