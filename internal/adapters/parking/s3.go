package parking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/example/plp/internal/ports/secondary"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store implements secondary.ParkedEventStore in an S3 bucket.
type S3Store struct {
	api    S3API
	bucket string
	prefix string
}

// NewS3Store returns a store writing under prefix in bucket.
func NewS3Store(api S3API, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{api: api, bucket: bucket, prefix: prefix}, nil
}

// Park stores the event as <prefix><id>.json.
func (s *S3Store) Park(ctx context.Context, event secondary.ParkedEvent) error {
	name, err := objectName(event.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode parked event: %w", err)
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to park event %s: %w", event.ID, err)
	}
	return nil
}

// List returns parked events, oldest first.
func (s *S3Store) List(ctx context.Context) ([]secondary.ParkedEvent, error) {
	var keys []string
	var token *string
	for {
		out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list parked events: %w", err)
		}
		for _, obj := range out.Contents {
			if key := aws.ToString(obj.Key); strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}

	out := make([]secondary.ParkedEvent, 0, len(keys))
	for _, key := range keys {
		event, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *S3Store) get(ctx context.Context, key string) (secondary.ParkedEvent, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return secondary.ParkedEvent{}, fmt.Errorf("failed to get parked event %s: %w", key, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return secondary.ParkedEvent{}, fmt.Errorf("failed to read parked event %s: %w", key, err)
	}
	var event secondary.ParkedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return secondary.ParkedEvent{}, fmt.Errorf("failed to decode parked event %s: %w", key, err)
	}
	return event, nil
}

var _ secondary.ParkedEventStore = (*S3Store)(nil)
