package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-wheelers-scraper/models"
)

type memoryWriter struct {
	mu      sync.Mutex
	records []*models.BookRecord
	failing bool
}

func (mw *memoryWriter) Write(records []*models.BookRecord) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.failing {
		return errors.New("disk full")
	}
	mw.records = append(mw.records, records...)
	return nil
}

func (mw *memoryWriter) Close() error    { return nil }
func (mw *memoryWriter) Validate() error { return nil }

func record(isbn string) *models.BookRecord {
	return &models.BookRecord{ISBN: isbn, ScrapedAt: time.Now()}
}

func TestPipelineProcessAndFlush(t *testing.T) {
	writer := &memoryWriter{}
	p := NewPipeline(writer)
	p.Start(1)

	for _, isbn := range []string{"111", "222", "333"} {
		if err := p.Process(record(isbn)); err != nil {
			t.Fatalf("process %s: %v", isbn, err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(writer.records) != 3 {
		t.Fatalf("written = %d, want 3", len(writer.records))
	}

	metrics := p.GetMetrics()
	if processed := metrics["processed_records"].(int64); processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}
}

func TestPipelineCountsInvalidRecords(t *testing.T) {
	writer := &memoryWriter{}
	p := NewPipeline(writer)
	p.Start(1)

	if err := p.Process(&models.BookRecord{ScrapedAt: time.Now()}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(record("111")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(writer.records) != 1 {
		t.Fatalf("written = %d, want 1 (invalid record dropped)", len(writer.records))
	}
	validation := p.GetMetrics()["validation_errors"].(map[string]int)
	if validation["invalid_record"] != 1 {
		t.Fatalf("validation counters = %v", validation)
	}
}

func TestPipelineErrorRecordsPassThrough(t *testing.T) {
	writer := &memoryWriter{}
	p := NewPipeline(writer)
	p.Start(1)

	degraded := record("9780300186116")
	degraded.Error = models.String("HTTP 404")
	if err := p.Process(degraded); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(writer.records) != 1 {
		t.Fatal("degraded records must still be written")
	}
}

func TestPipelineRejectsAfterClose(t *testing.T) {
	p := NewPipeline(&memoryWriter{})
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := p.Process(record("111")); err != ErrPipelineClosed {
		t.Fatalf("process after close = %v, want ErrPipelineClosed", err)
	}
}

func TestPipelineSurfacesWriterError(t *testing.T) {
	writer := &memoryWriter{failing: true}
	p := NewPipeline(writer)
	p.Start(1)

	// Enough records to force a flush through the failing writer.
	for i := 0; i < 20; i++ {
		if err := p.Process(record("111")); err != nil {
			break
		}
	}

	if err := p.Close(); err == nil {
		t.Fatal("expected writer error to surface on close")
	}
}
