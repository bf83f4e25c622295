package queue

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var downloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "image_downloads_total",
	Help: "Background image variant downloads by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(downloadsTotal)
}

// Download is one image variant to persist to local storage.
type Download struct {
	URL  string
	Dest string
}

// Downloads is the background lane that writes image variant bytes to disk.
// It has no ordering requirement and no correctness dependency on the
// request lane; failures are logged and dropped.
type Downloads struct {
	jobs   chan Download
	client *http.Client
	log    zerolog.Logger
	wg     sync.WaitGroup
}

// NewDownloads starts the given number of download workers (the bot runs
// two). Jobs are fire-and-forget.
func NewDownloads(workers, buffer int, log zerolog.Logger) *Downloads {
	if workers < 1 {
		workers = 1
	}
	if buffer < workers {
		buffer = workers * 16
	}
	d := &Downloads{
		jobs: make(chan Download, buffer),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit queues one variant for persistence. Never blocks the caller: when
// the buffer is full the job is dropped, since the on-disk copy is a
// best-effort cache warm.
func (d *Downloads) Submit(job Download) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		downloadsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("url", job.URL).Msg("download buffer full, dropping variant")
		return false
	}
}

// Close drains outstanding jobs and stops the workers.
func (d *Downloads) Close() {
	close(d.jobs)
	d.wg.Wait()
}

func (d *Downloads) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		if err := d.fetch(job); err != nil {
			downloadsTotal.WithLabelValues("error").Inc()
			d.log.Debug().Err(err).Str("url", job.URL).Msg("image download failed")
			continue
		}
		downloadsTotal.WithLabelValues("ok").Inc()
	}
}

func (d *Downloads) fetch(job Download) error {
	resp, err := d.client.Get(job.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP %d", job.URL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(job.Dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(job.Dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}
