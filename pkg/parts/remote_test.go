package parts

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func openTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

func TestPushPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	tmpDir := t.TempDir()

	source := filepath.Join(tmpDir, "game.nsp")
	data := testData(1000)
	writeFile(t, source, data)

	split, err := Split(ctx, source, WithPartSize(300), WithManifest(true))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	pushObs := &recordingObserver{}
	pushed, err := Push(ctx, bucket, split.Dir, "games/game", WithBufferSize(128), WithObserver(pushObs))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	pushObs.check(t, 1000)
	if pushed.Source != "game.nsp" || pushed.PartSize != 300 || len(pushed.Parts) != 4 {
		t.Errorf("pushed manifest = %+v", pushed)
	}

	for _, key := range []string{"games/game/01", "games/game/04", "games/game.manifest.json"} {
		if ok, err := bucket.Exists(ctx, key); err != nil || !ok {
			t.Errorf("expected %s in bucket (err=%v)", key, err)
		}
	}

	result, err := ValidateRemote(ctx, bucket, "games/game/")
	if err != nil {
		t.Fatalf("ValidateRemote: %v", err)
	}
	if !result.Valid || result.TotalSize != 1000 || result.PartCount != 4 {
		t.Errorf("remote validation = %+v", result)
	}

	pullDir := filepath.Join(tmpDir, "pulled", "game_split")
	pullObs := &recordingObserver{}
	pulled, err := Pull(ctx, bucket, "games/game", pullDir, WithObserver(pullObs))
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	pullObs.check(t, 1000)
	if pulled.TotalSize != 1000 {
		t.Errorf("pulled TotalSize = %d", pulled.TotalSize)
	}

	combined, err := Combine(ctx, pullDir, WithVerify(true))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if !combined.Verified {
		t.Error("pulled parts combined without verification")
	}
	assertBytes(t, readFile(t, combined.Output), data)
}

func TestPullAlreadyExists(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "game_split")
	writeParts(t, dir, map[string][]byte{"01": []byte("abc")})
	if _, err := Push(ctx, bucket, dir, "game"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if _, err := Pull(ctx, bucket, "game", dir); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := Pull(ctx, bucket, "game", dir, WithForce(true)); err != nil {
		t.Fatalf("Pull with force: %v", err)
	}
	if got := string(readFile(t, filepath.Join(dir, "01"))); got != "abc" {
		t.Errorf("pulled part = %q", got)
	}
}

func TestPullForceKeepsForeignFiles(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	tmpDir := t.TempDir()

	source := filepath.Join(tmpDir, "game.nsp")
	data := testData(50)
	writeFile(t, source, data)
	split, err := Split(ctx, source, WithPartSize(20))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if _, err := Push(ctx, bucket, split.Dir, "game"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	// Target holds unrelated data next to a stale part set
	target := filepath.Join(tmpDir, "sdcard")
	writeParts(t, target, map[string][]byte{"01": []byte("old"), "04": []byte("old")})
	writeFile(t, ManifestPath(target), []byte("{}"))
	writeFile(t, filepath.Join(target, "save.dat"), []byte("save"))
	writeFile(t, filepath.Join(target, "other", "x.bin"), []byte("x"))

	if _, err := Pull(ctx, bucket, "game", target, WithForce(true)); err != nil {
		t.Fatalf("Pull with force: %v", err)
	}

	if got := string(readFile(t, filepath.Join(target, "save.dat"))); got != "save" {
		t.Errorf("save.dat = %q, want save", got)
	}
	if got := string(readFile(t, filepath.Join(target, "other", "x.bin"))); got != "x" {
		t.Errorf("other/x.bin = %q, want x", got)
	}
	if names := dirNames(t, target); !reflect.DeepEqual(names, []string{"01", "02", "03", "other", "save.dat"}) {
		t.Errorf("entries after pull = %v", names)
	}

	m, err := ReadManifest(target)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(m.Parts) != 3 {
		t.Errorf("manifest lists %d parts, want 3", len(m.Parts))
	}

	combined, err := Combine(ctx, target, WithVerify(true), WithOutput(filepath.Join(tmpDir, "restored.nsp")))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	assertBytes(t, readFile(t, combined.Output), data)
}

func TestPullCorruptPart(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "game_split")
	writeParts(t, dir, map[string][]byte{"01": []byte("aaaa"), "02": []byte("bb")})
	if _, err := Push(ctx, bucket, dir, "game"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	// Same size, different content
	if err := bucket.WriteAll(ctx, "game/02", []byte("zz"), nil); err != nil {
		t.Fatalf("overwrite part: %v", err)
	}

	_, err := Pull(ctx, bucket, "game", filepath.Join(tmpDir, "pulled"))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestPushRejectsMismatchedManifest(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	tmpDir := t.TempDir()

	source := filepath.Join(tmpDir, "game.nsp")
	writeFile(t, source, testData(200))
	split, err := Split(ctx, source, WithPartSize(100), WithManifest(true))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	data := readFile(t, split.Parts[1].Path)
	data[0] ^= 0xFF
	writeFile(t, split.Parts[1].Path, data)

	_, err = Push(ctx, bucket, split.Dir, "game")
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if ok, _ := bucket.Exists(ctx, "game/02"); ok {
		t.Error("corrupt part left in bucket")
	}
	if ok, _ := bucket.Exists(ctx, "game.manifest.json"); ok {
		t.Error("manifest written for a failed push")
	}
}

func TestValidateAndDeleteRemote(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)

	dir := filepath.Join(t.TempDir(), "game_split")
	writeParts(t, dir, map[string][]byte{"01": []byte("aaaa"), "02": []byte("aaaa"), "03": []byte("a")})
	if _, err := Push(ctx, bucket, dir, "game"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if err := bucket.Delete(ctx, "game/02"); err != nil {
		t.Fatalf("delete part: %v", err)
	}
	result, err := ValidateRemote(ctx, bucket, "game")
	if err != nil {
		t.Fatalf("ValidateRemote: %v", err)
	}
	if result.Valid || result.MissingParts != 1 {
		t.Errorf("expected one missing part, got %+v", result)
	}

	if err := DeleteRemote(ctx, bucket, "game"); err != nil {
		t.Fatalf("DeleteRemote: %v", err)
	}
	for _, key := range []string{"game/01", "game/03", "game.manifest.json"} {
		if ok, _ := bucket.Exists(ctx, key); ok {
			t.Errorf("%s still exists", key)
		}
	}

	if _, err := ValidateRemote(ctx, bucket, "game"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteRemote(ctx, bucket, "game"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
