package corpus

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"districtguide/pubsub"
	"districtguide/rag"
	"districtguide/rag/scrape"
)

// errEmptyPage marks pages that fetched fine but produced no visible text.
var errEmptyPage = errors.New("page yielded no content")

// Progress describes one completed unit of corpus construction. Done/Total
// gives the fraction for an external progress display.
type Progress struct {
	URL     string
	Done    int
	Total   int
	Skipped bool
	Err     error
}

// PageFetcher retrieves raw HTML for one URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// pageResult is the per-URL outcome. Failures are values here, not control
// flow: the builder filters to the successful pages.
type pageResult struct {
	doc rag.Document
	err error
}

// Builder turns the configured URL list into a slice of corpus documents.
type Builder struct {
	fetcher PageFetcher
	sources []string
	delay   time.Duration
	events  pubsub.Publisher[Progress]
}

// NewBuilder creates a corpus builder. events may be nil when no progress
// display is attached.
func NewBuilder(fetcher PageFetcher, sources []string, delay time.Duration, events pubsub.Publisher[Progress]) *Builder {
	return &Builder{
		fetcher: fetcher,
		sources: sources,
		delay:   delay,
		events:  events,
	}
}

// Build fetches and extracts every source URL in order. A page that fails to
// fetch or yields empty content is skipped with a warning; the batch never
// aborts on a single URL. An empty result is a valid, if degraded, outcome.
//
// The delay between URLs is a politeness throttle against the origin server,
// not an optimization knob.
func (b *Builder) Build(ctx context.Context) ([]rag.Document, error) {
	docs := make([]rag.Document, 0, len(b.sources))

	for i, url := range b.sources {
		res := b.buildPage(ctx, url)
		if res.err != nil {
			log.Printf("warning: skipping %s: %v", url, res.err)
		} else {
			docs = append(docs, res.doc)
		}

		b.publish(Progress{
			URL:     url,
			Done:    i + 1,
			Total:   len(b.sources),
			Skipped: res.err != nil,
			Err:     res.err,
		})

		if b.delay > 0 && i < len(b.sources)-1 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return docs, ctx.Err()
			}
		}
	}

	if b.events != nil {
		b.events.Publish(pubsub.FinishedEvent, Progress{Done: len(b.sources), Total: len(b.sources)})
	}
	return docs, nil
}

// buildPage runs fetch+extract for one URL and folds the outcome into a value.
func (b *Builder) buildPage(ctx context.Context, url string) pageResult {
	rawHTML, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		return pageResult{err: err}
	}

	page, err := scrape.Extract(rawHTML)
	if err != nil {
		return pageResult{err: &rag.FetchError{URL: url, Err: err}}
	}
	if page.Content == "" {
		return pageResult{err: &rag.FetchError{URL: url, Err: errEmptyPage}}
	}

	return pageResult{doc: rag.Document{
		ID:      uuid.New().String(),
		Content: page.Content,
		Source:  url,
		Title:   page.Title,
		Metadata: map[string]interface{}{
			"source": url,
			"title":  page.Title,
		},
	}}
}

func (b *Builder) publish(p Progress) {
	if b.events == nil {
		return
	}
	if p.Err != nil {
		b.events.Publish(pubsub.ErrorEvent, p)
		return
	}
	b.events.Publish(pubsub.ProgressEvent, p)
}
