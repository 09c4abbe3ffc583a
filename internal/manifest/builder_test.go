package manifest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

// -------- test fakes --------

type fakeImageRepo struct {
	images map[string]*entity.PendingImage
}

func (f *fakeImageRepo) Get(ctx context.Context, imageID string) (*entity.PendingImage, error) {
	img, ok := f.images[imageID]
	if !ok {
		return nil, fmt.Errorf("%w: image %s", common.ErrNotFound, imageID)
	}
	return img, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	putKey  string
	putBody []byte
	puts    int
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object %s", key)
	}
	return b, nil
}

func (f *fakeObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := f.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	f.puts++
	f.putKey = key
	f.putBody = body
	return "s3://test-bucket/" + key, nil
}

// -------- helpers --------

// seed registers n fetchable images owned by userID and returns their ids.
func seed(images *fakeImageRepo, store *fakeObjectStore, userID string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		id := fmt.Sprintf("img-%03d", i)
		key := fmt.Sprintf("uploads/%s/%s.jpg", userID, id)
		images.images[id] = &entity.PendingImage{ImageID: id, S3Key: key, UserID: userID, Status: "pending"}
		store.objects[key] = []byte("jpeg-bytes-" + id)
		ids[i] = id
	}
	return ids
}

func newTestBuilder(images *fakeImageRepo, store *fakeObjectStore, minSize int) *Builder {
	return NewBuilder(images, store, "batch/input", minSize, slog.Default())
}

func decodeManifest(t *testing.T, raw []byte) []entity.ManifestEntry {
	t.Helper()
	var entries []entity.ManifestEntry
	for _, line := range bytes.Split(bytes.TrimSuffix(raw, []byte("\n")), []byte("\n")) {
		var e entity.ManifestEntry
		require.NoError(t, json.Unmarshal(line, &e), "each line must parse independently")
		entries = append(entries, e)
	}
	return entries
}

// -------- tests --------

func TestBuild_OneLinePerImage(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}
	ids := seed(images, store, "u1", 100)

	b := newTestBuilder(images, store, 100)
	res, err := b.Build(context.Background(), "u1", "nova-lite", ids)
	require.NoError(t, err)

	assert.Equal(t, 100, res.IncludedCount)
	assert.Empty(t, res.SkippedImageIDs)
	assert.Equal(t, "s3://test-bucket/"+store.putKey, res.ManifestURI)

	entries := decodeManifest(t, store.putBody)
	require.Len(t, entries, 100)

	seen := map[string]bool{}
	for _, e := range entries {
		assert.Equal(t, "nova-lite", e.ModelID)
		assert.Equal(t, constants.OCRPrompt, e.Input.Text)
		assert.Equal(t, "jpeg", e.Input.Image.Format)
		assert.False(t, seen[e.CustomData], "duplicate customData %s", e.CustomData)
		seen[e.CustomData] = true

		decoded, err := base64.StdEncoding.DecodeString(e.Input.Image.Source.Bytes)
		require.NoError(t, err, "bytes must be unwrapped standard base64")
		assert.Equal(t, []byte("jpeg-bytes-"+e.CustomData), decoded)
	}
	for _, id := range ids {
		assert.True(t, seen[id], "input image %s missing from manifest", id)
	}
}

func TestBuild_SkipsUnreadableImage(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}
	ids := seed(images, store, "u1", 105)

	// one image resolves but its object is gone
	delete(store.objects, images.images["img-042"].S3Key)

	b := newTestBuilder(images, store, 100)
	res, err := b.Build(context.Background(), "u1", "nova-lite", ids)
	require.NoError(t, err)

	assert.Equal(t, 104, res.IncludedCount)
	assert.Equal(t, []string{"img-042"}, res.SkippedImageIDs)
	assert.Len(t, decodeManifest(t, store.putBody), 104)
}

func TestBuild_SkipsUnknownAndForeignImages(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}
	ids := seed(images, store, "u1", 100)

	// a foreign user's image and a dangling id ride along in the request
	images.images["img-other"] = &entity.PendingImage{ImageID: "img-other", S3Key: "uploads/u2/x.jpg", UserID: "u2"}
	store.objects["uploads/u2/x.jpg"] = []byte("x")
	ids = append(ids, "img-other", "img-missing")

	b := newTestBuilder(images, store, 100)
	res, err := b.Build(context.Background(), "u1", "nova-lite", ids)
	require.NoError(t, err)

	assert.Equal(t, 100, res.IncludedCount)
	assert.ElementsMatch(t, []string{"img-other", "img-missing"}, res.SkippedImageIDs)
}

func TestBuild_AbortsBelowMinimum(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}
	ids := seed(images, store, "u1", 100)

	// lose two objects: 98 < 100
	delete(store.objects, images.images["img-001"].S3Key)
	delete(store.objects, images.images["img-002"].S3Key)

	b := newTestBuilder(images, store, 100)
	_, err := b.Build(context.Background(), "u1", "nova-lite", ids)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, store.puts, "no manifest may be stored for an undersized batch")
}

func TestBuild_NormalizesImageFormatFromKey(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}

	images.images["img-a"] = &entity.PendingImage{ImageID: "img-a", S3Key: "uploads/u1/a.webp", UserID: "u1"}
	images.images["img-b"] = &entity.PendingImage{ImageID: "img-b", S3Key: "uploads/u1/b.JPG", UserID: "u1"}
	store.objects["uploads/u1/a.webp"] = []byte("a")
	store.objects["uploads/u1/b.JPG"] = []byte("b")

	b := newTestBuilder(images, store, 1)
	_, err := b.Build(context.Background(), "u1", "nova-lite", []string{"img-a", "img-b"})
	require.NoError(t, err)

	entries := decodeManifest(t, store.putBody)
	require.Len(t, entries, 2)
	assert.Equal(t, "webp", entries[0].Input.Image.Format)
	assert.Equal(t, "jpeg", entries[1].Input.Image.Format)
}

func TestBuild_ManifestKeyIsDateScoped(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PendingImage{}}
	store := &fakeObjectStore{objects: map[string][]byte{}}
	ids := seed(images, store, "u1", 1)

	b := newTestBuilder(images, store, 1)
	_, err := b.Build(context.Background(), "u1", "nova-lite", ids)
	require.NoError(t, err)

	assert.Regexp(t, `^batch/input/\d{4}/\d{2}/\d{2}/[0-9a-f-]+\.jsonl$`, store.putKey)
}
