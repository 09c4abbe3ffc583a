package manifest

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
	"github.com/yorutsuke/yorutsuke-cloud/internal/storage"
)

const fetchWorkers = 8

// fetchOutcome is the per-image result of the pool, positionally aligned
// with the requested image ids. A non-empty skipReason means the image
// must be left out of the manifest.
type fetchOutcome struct {
	img        *entity.PendingImage
	data       []byte
	skipReason string
	err        error
}

// fetchPool resolves and downloads images with a bounded worker pool.
// Outcomes keep the request order so manifest lines stay deterministic.
type fetchPool struct {
	images repository.PendingImageRepository
	store  storage.ObjectStore
}

func (p *fetchPool) run(ctx context.Context, userID string, imageIDs []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(imageIDs))
	idx := make(chan int)

	workers := fetchWorkers
	if len(imageIDs) < workers {
		workers = len(imageIDs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				outcomes[i] = p.fetchOne(ctx, userID, imageIDs[i])
			}
		}()
	}
	for i := range imageIDs {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return outcomes
}

func (p *fetchPool) fetchOne(ctx context.Context, userID, imageID string) fetchOutcome {
	img, err := p.images.Get(ctx, imageID)
	if err != nil {
		return fetchOutcome{skipReason: "lookup", err: err}
	}
	if img.UserID != userID {
		return fetchOutcome{skipReason: "owner_mismatch"}
	}
	data, err := p.fetchBytes(ctx, img.S3Key)
	if err != nil {
		return fetchOutcome{skipReason: "fetch", err: err}
	}
	return fetchOutcome{img: img, data: data}
}

// fetchBytes reads image bytes with a short retry budget; object storage
// reads fail transiently often enough that one bad read should not cost a
// whole manifest entry.
func (p *fetchPool) fetchBytes(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		data, err = p.store.Get(ctx, key)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return data, err
}
