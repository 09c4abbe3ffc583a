// Package manifest builds the JSONL input file for one batch inference job.
package manifest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
	"github.com/yorutsuke/yorutsuke-cloud/internal/storage"
)

// Result reports what actually went into the manifest. IncludedCount is the
// authoritative image count for the job record; skipped images are excluded
// from it.
type Result struct {
	ManifestURI     string
	IncludedCount   int
	SkippedImageIDs []string
}

type Builder struct {
	images  repository.PendingImageRepository
	store   storage.ObjectStore
	prefix  string
	minSize int
	log     *slog.Logger
}

func NewBuilder(images repository.PendingImageRepository, store storage.ObjectStore, prefix string, minSize int, log *slog.Logger) *Builder {
	return &Builder{images: images, store: store, prefix: prefix, minSize: minSize, log: log}
}

// Build resolves and fetches each image through a bounded worker pool,
// emits one JSONL line per image in request order, and writes the manifest
// to the batch input prefix.
//
// An image that cannot be resolved or fetched is skipped with a warning
// rather than failing the whole batch; the build aborts only when the
// included count falls below the service minimum.
func (b *Builder) Build(ctx context.Context, userID, modelID string, imageIDs []string) (*Result, error) {
	start := time.Now()
	b.log.Info("manifest.build.start", "user_id", userID, "model_id", modelID, "requested", len(imageIDs))

	pool := &fetchPool{images: b.images, store: b.store}
	outcomes := pool.run(ctx, userID, imageIDs)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	res := &Result{}
	for i, out := range outcomes {
		imageID := imageIDs[i]
		if out.skipReason != "" {
			b.log.Warn("manifest.build.image_skipped",
				"image_id", imageID, "reason", out.skipReason, "error", out.err)
			res.SkippedImageIDs = append(res.SkippedImageIDs, imageID)
			continue
		}

		entry := entity.ManifestEntry{
			ModelID: modelID,
			Input: entity.ManifestInput{
				Text: constants.OCRPrompt,
				Image: entity.ManifestImage{
					Format: constants.NormalizeImageFormat(path.Ext(out.img.S3Key)),
					Source: entity.ImageSource{
						// Standard encoding, no line wrapping: each
						// manifest line must stay independently parseable.
						Bytes: base64.StdEncoding.EncodeToString(out.data),
					},
				},
			},
			CustomData: imageID,
		}
		// json.Encoder terminates each record with exactly one newline,
		// which is the JSONL framing the batch service expects.
		if err := enc.Encode(entry); err != nil {
			return nil, fmt.Errorf("encode manifest entry %s: %w", imageID, err)
		}
		res.IncludedCount++
	}

	if res.IncludedCount < b.minSize {
		b.log.Error("manifest.build.below_minimum",
			"included", res.IncludedCount, "minimum", b.minSize, "skipped", len(res.SkippedImageIDs))
		return nil, fmt.Errorf("%w: only %d of %d images readable, minimum is %d",
			common.ErrValidation, res.IncludedCount, len(imageIDs), b.minSize)
	}

	key := b.manifestKey(start)
	uri, err := b.store.Put(ctx, key, buf.Bytes(), "application/jsonl")
	if err != nil {
		return nil, fmt.Errorf("store manifest: %w", err)
	}
	res.ManifestURI = uri

	b.log.Info("manifest.build.done",
		"uri", uri, "included", res.IncludedCount, "skipped", len(res.SkippedImageIDs),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// manifestKey scopes manifests by submission date, one file per submission.
func (b *Builder) manifestKey(now time.Time) string {
	d := now.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.jsonl", b.prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}
