package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
)

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps season artifacts as parquet objects under a bucket prefix
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger *logrus.Logger
}

func NewS3Store(client S3API, bucket, prefix string, logger *logrus.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *S3Store) key(season int) string {
	if s.prefix == "" {
		return ArtifactName(season)
	}
	return s.prefix + "/" + ArtifactName(season)
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func (s *S3Store) Load(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(season)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact object: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}

	builtAt := time.Now().UTC()
	if out.LastModified != nil {
		builtAt = out.LastModified.UTC()
	}
	return &nfl.SeasonTable{Season: season, Rows: rows, BuiltAt: builtAt}, nil
}

func (s *S3Store) Stat(ctx context.Context, season int) (time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(season)),
	})
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, ErrArtifactNotFound
		}
		return time.Time{}, fmt.Errorf("head artifact object: %w", err)
	}
	if out.LastModified == nil {
		return time.Time{}, nil
	}
	return out.LastModified.UTC(), nil
}

func (s *S3Store) Save(ctx context.Context, table *nfl.SeasonTable) error {
	data, err := encodeRows(table.Rows)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(table.Season)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("put artifact object: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"season": table.Season,
		"rows":   len(table.Rows),
		"key":    s.key(table.Season),
	}).Info("Saved season artifact")
	return nil
}

// Delete checks existence first since S3 deletes are idempotent
func (s *S3Store) Delete(ctx context.Context, season int) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(season)),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrArtifactNotFound
		}
		return fmt.Errorf("head artifact object: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(season)),
	})
	if err != nil {
		return fmt.Errorf("delete artifact object: %w", err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]int, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	var seasons []int
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list artifact objects: %w", err)
		}
		for _, obj := range page.Contents {
			if season, ok := parseArtifactName(path.Base(aws.ToString(obj.Key))); ok {
				seasons = append(seasons, season)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons, nil
}
