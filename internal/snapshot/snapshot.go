package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/jonboulle/clockwork"
)

const (
	imageFile    = "calendar.png"
	daysFile     = "days.json"
	manifestFile = "manifest.json"
)

// Snapshot is a rendered calendar and the aggregate it was drawn from
type Snapshot struct {
	Image  []byte
	Info   *calendar.DayBucketInfo
	Series []string
}

// Build lays out the snapshot files and their manifest
func Build(s Snapshot, clock clockwork.Clock) (map[string][]byte, Manifest, error) {
	days, err := json.MarshalIndent(calendar.DayBucketFrame(s.Info), "", "  ")
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("failed to marshal day buckets: %w", err)
	}

	files := map[string][]byte{
		imageFile: s.Image,
		daysFile:  days,
	}

	manifest := Manifest{
		SnapshotTimestamp: FormatTimestamp(clock.Now()),
		SnapshotVersion:   manifestVersion,
		Year:              s.Info.Year,
		Series:            s.Series,
		Observations:      s.Info.Observations(),
		TouchedDays:       s.Info.Touched(),
		Files: []FileManifest{
			{FileName: imageFile, ContentType: "image/png", FileSize: int64(len(s.Image)), Checksum: Checksum(s.Image)},
			{FileName: daysFile, ContentType: "application/json", FileSize: int64(len(days)), Checksum: Checksum(days)},
		},
	}
	manifest.Seal()

	return files, manifest, nil
}

// WriteLocal writes the snapshot files and manifest into dir
func WriteLocal(dir string, s Snapshot, clock clockwork.Clock) (*Manifest, error) {
	files, manifest, err := Build(s, clock)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := WriteManifest(filepath.Join(dir, manifestFile), manifest); err != nil {
		return nil, err
	}

	log.Printf("Wrote snapshot for %d to %s", manifest.Year, dir)
	return &manifest, nil
}

// S3API is the subset of the S3 client used by Publisher
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Publisher uploads snapshots to an S3 bucket
type Publisher struct {
	client S3API
	bucket string
	prefix string
	clock  clockwork.Clock
}

// NewPublisher creates a publisher using the default AWS configuration
func NewPublisher(ctx context.Context, bucket, prefix string) (*Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewPublisherWithClient(s3.NewFromConfig(cfg), bucket, prefix, clockwork.NewRealClock()), nil
}

// NewPublisherWithClient creates a publisher on an existing client
func NewPublisherWithClient(client S3API, bucket, prefix string, clock clockwork.Clock) *Publisher {
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		clock:  clock,
	}
}

// Publish uploads the snapshot under <prefix>/<year>/<timestamp>/ and returns
// the key prefix it was written to
func (p *Publisher) Publish(ctx context.Context, s Snapshot) (string, *Manifest, error) {
	files, manifest, err := Build(s, p.clock)
	if err != nil {
		return "", nil, err
	}

	keyPrefix := path.Join(p.prefix, fmt.Sprintf("%d", manifest.Year), manifest.SnapshotTimestamp)
	for _, f := range manifest.Files {
		if err := p.put(ctx, path.Join(keyPrefix, f.FileName), f.ContentType, files[f.FileName]); err != nil {
			return "", nil, err
		}
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	// manifest last, so a listed manifest implies complete files
	if err := p.put(ctx, path.Join(keyPrefix, manifestFile), "application/json", manifestData); err != nil {
		return "", nil, err
	}

	log.Printf("Published snapshot for %d to s3://%s/%s", manifest.Year, p.bucket, keyPrefix)
	return keyPrefix, &manifest, nil
}

// FetchManifest downloads and verifies the manifest under keyPrefix
func (p *Publisher) FetchManifest(ctx context.Context, keyPrefix string) (*Manifest, error) {
	data, err := p.get(ctx, path.Join(keyPrefix, manifestFile))
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := manifest.Verify(nil); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (p *Publisher) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

func (p *Publisher) get(ctx context.Context, key string) ([]byte, error) {
	result, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", p.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", p.bucket, key, err)
	}
	return data, nil
}
