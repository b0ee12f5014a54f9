package parking

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/example/plp/internal/ports/secondary"
)

// fakeS3 implements S3API over a map, returning one key per list page.
type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", aws.ToString(in.Key))
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		fmt.Sscanf(*in.ContinuationToken, "%d", &start)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if start < len(keys) {
		out.Contents = []types.Object{{Key: aws.String(keys[start])}}
		if start+1 < len(keys) {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(fmt.Sprint(start + 1))
		}
	}
	return out, nil
}

func parked(id string, at time.Time) secondary.ParkedEvent {
	return secondary.ParkedEvent{ID: id, Body: `{"eventType":"PRISONER_RECEIVED"}`, Category: "precondition", Error: "invalid event", ParkedAt: at, Attempts: 1}
}

func TestStores(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	stores := map[string]func(t *testing.T) secondary.ParkedEventStore{
		"fs": func(t *testing.T) secondary.ParkedEventStore {
			s, err := NewFileStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFileStore() error = %v", err)
			}
			return s
		},
		"s3": func(t *testing.T) secondary.ParkedEventStore {
			s, err := NewS3Store(&fakeS3{objects: map[string][]byte{"other/x.json": []byte("{}")}}, "parked-events", "plp")
			if err != nil {
				t.Fatalf("NewS3Store() error = %v", err)
			}
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			for _, e := range []secondary.ParkedEvent{
				parked("msg-3", base.Add(2*time.Minute)),
				parked("msg-1", base),
				parked("../msg/2", base.Add(time.Minute)),
			} {
				if err := store.Park(ctx, e); err != nil {
					t.Fatalf("Park(%s) error = %v", e.ID, err)
				}
			}

			// Parking again replaces the earlier copy.
			again := parked("msg-1", base)
			again.Attempts = 5
			if err := store.Park(ctx, again); err != nil {
				t.Fatalf("Park() again error = %v", err)
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("List() returned %d events, want 3", len(list))
			}
			want := []string{"msg-1", "../msg/2", "msg-3"}
			for i, id := range want {
				if list[i].ID != id {
					t.Errorf("list[%d] = %s, want %s", i, list[i].ID, id)
				}
			}
			if list[0].Attempts != 5 {
				t.Errorf("attempts = %d, want the replaced copy's 5", list[0].Attempts)
			}

			if err := store.Park(ctx, parked(" ", base)); err == nil {
				t.Error("expected error parking an event without an id")
			}
		})
	}
}
