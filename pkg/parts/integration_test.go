//go:build integration

package parts_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "gocloud.dev/blob/s3blob"

	"github.com/nspsplit/nspsplit/internal/testutils"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

func TestIntegrationPushPullMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	t.Log("Starting Minio container...")
	minio := testutils.StartMinioContainer(t, ctx, "nspsplit-parts-test")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	bucket, err := minio.OpenBucket(ctx)
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	const mib = 1024 * 1024
	sizes := []struct {
		name     string
		size     int64
		partSize int64
	}{
		{"empty", 0, mib},
		{"tiny", 1024, mib},
		{"exact", 4 * mib, mib},
		{"ragged", 20*mib + 17, 8 * mib},
		{"random", 24 * mib, 5 * mib}, // Random content above 10MB
	}

	for _, tc := range sizes {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			source, data := testutils.WriteArchive(t, tmpDir, tc.name+".nsp", tc.size)

			split, err := parts.Split(ctx, source, parts.WithPartSize(tc.partSize), parts.WithManifest(true))
			if err != nil {
				t.Fatalf("Split: %v", err)
			}

			prefix := fmt.Sprintf("integration/%s", tc.name)
			if _, err := parts.Push(ctx, bucket, split.Dir, prefix); err != nil {
				t.Fatalf("Push: %v", err)
			}

			result, err := parts.ValidateRemote(ctx, bucket, prefix)
			if err != nil {
				t.Fatalf("ValidateRemote: %v", err)
			}
			if !result.Valid || result.TotalSize != tc.size {
				t.Fatalf("remote validation = %+v", result)
			}

			pulledDir := filepath.Join(tmpDir, "pulled", tc.name+"_split")
			if _, err := parts.Pull(ctx, bucket, prefix, pulledDir); err != nil {
				t.Fatalf("Pull: %v", err)
			}

			combined, err := parts.Combine(ctx, pulledDir, parts.WithVerify(true))
			if err != nil {
				t.Fatalf("Combine: %v", err)
			}
			testutils.CompareFileToData(t, combined.Output, data)

			if err := parts.DeleteRemote(ctx, bucket, prefix); err != nil {
				t.Fatalf("DeleteRemote: %v", err)
			}
			if _, err := parts.ValidateRemote(ctx, bucket, prefix); !errors.Is(err, parts.ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}
