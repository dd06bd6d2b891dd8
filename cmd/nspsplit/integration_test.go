//go:build integration

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspsplit/nspsplit/internal/testutils"
)

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 3.5 MiB split into 1 MiB parts
	tmpDir := t.TempDir()
	source, data := testutils.WriteArchive(t, tmpDir, "title.nsp", 3*1024*1024+512*1024)

	t.Log("Starting Minio container...")
	minio := testutils.StartMinioContainer(t, ctx, "nspsplit-cli-test")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	partDir := filepath.Join(tmpDir, "title_split")
	pulledDir := filepath.Join(tmpDir, "restore", "title_split")

	steps := []struct {
		name string
		args []string
		want int
	}{
		{"split", []string{"split", source, "--part-size", "1MiB", "--manifest", "--buffer-size", "256KiB"}, ExitSuccess},
		{"validate_local", []string{"validate", partDir, "--verify"}, ExitSuccess},
		{"push", []string{"push", partDir, "--bucket", minio.BucketURL, "--prefix", "library/title"}, ExitSuccess},
		{"validate_remote", []string{"validate", "--bucket", minio.BucketURL, "--prefix", "library/title"}, ExitSuccess},
		{"pull", []string{"pull", "library/title", pulledDir, "--bucket", minio.BucketURL}, ExitSuccess},
		{"pull_again", []string{"pull", "library/title", pulledDir, "--bucket", minio.BucketURL}, ExitAlreadyExists},
		{"combine", []string{"combine", pulledDir, "--verify"}, ExitSuccess},
		{"delete_remote", []string{"delete", "--force", "--bucket", minio.BucketURL, "--prefix", "library/title"}, ExitSuccess},
		{"validate_deleted", []string{"validate", "--bucket", minio.BucketURL, "--prefix", "library/title"}, ExitNotFound},
	}

	for _, step := range steps {
		ok := t.Run(step.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", step.args...)
			if code != step.want {
				t.Fatalf("exit code %d, want %d: %s", code, step.want, stderr)
			}
		})
		if !ok {
			t.FailNow()
		}
	}

	testutils.CompareFileToData(t, filepath.Join(tmpDir, "restore", "title.nsp"), data)
}
