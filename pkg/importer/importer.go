package importer

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tbsync/pkg/httputils"
	"github.com/autobrr/tbsync/pkg/magnet"
	"github.com/autobrr/tbsync/pkg/torbox"
)

const DefaultDelay = 5 * time.Second

// Remote is the subset of the TorBox API the importer drives.
type Remote interface {
	ListTorrents(ctx context.Context) ([]torbox.Torrent, error)
	ListQueued(ctx context.Context) ([]torbox.Torrent, error)
	CreateTorrent(ctx context.Context, magnetURI string) (string, error)
}

type Options struct {
	DryRun bool
	// Delay is the pause between the two listing calls and after every submitted
	// record. Zero disables it.
	Delay time.Duration
}

type Engine struct {
	remote Remote
	opts   Options
	log    *logrus.Entry
}

// Outcome summarises one run.
type Outcome struct {
	Processed int
	Attempted int
	Added     int
	Filtered  int
	Duration  time.Duration
}

// Skipped is the number of records already present remotely.
func (o Outcome) Skipped() int {
	return o.Processed - o.Attempted
}

// Failed is the number of submissions that did not create a torrent.
func (o Outcome) Failed() int {
	return o.Attempted - o.Added
}

func New(remote Remote, opts Options, log *logrus.Entry) *Engine {
	return &Engine{
		remote: remote,
		opts:   opts,
		log:    log,
	}
}

// FetchExistingHashes collects the lowercase hashes of active and queued torrents.
// A failed listing contributes nothing and never aborts the run.
func (e *Engine) FetchExistingHashes(ctx context.Context) *strset.Set {
	existing := strset.New()

	if e.opts.DryRun {
		e.log.Info("[DRY RUN] Would fetch existing torrents")
		return existing
	}

	if torrents, err := e.remote.ListTorrents(ctx); err != nil {
		e.log.WithError(err).Error("Error getting existing torrents")
	} else {
		addHashes(existing, torrents)
	}

	if err := httputils.Sleep(ctx, e.opts.Delay); err != nil {
		return existing
	}

	if torrents, err := e.remote.ListQueued(ctx); err != nil {
		e.log.WithError(err).Error("Error getting queued torrents")
	} else {
		addHashes(existing, torrents)
	}

	e.log.Infof("Found %s existing/queued torrents", humanize.Comma(int64(existing.Size())))
	return existing
}

func addHashes(set *strset.Set, torrents []torbox.Torrent) {
	for _, t := range torrents {
		if t.Hash == "" {
			continue
		}
		set.Add(magnet.Record{Hash: t.Hash}.Key())
	}
}

// CreateRecord submits one record. Failures are logged and reported as false.
func (e *Engine) CreateRecord(ctx context.Context, rec magnet.Record) bool {
	if e.opts.DryRun {
		e.log.Infof("[DRY RUN] Would add torrent: %s", rec.Hash)
		return true
	}

	detail, err := e.remote.CreateTorrent(ctx, rec.URI())
	if err != nil {
		e.log.WithError(err).Errorf("Error creating torrent: %s", rec.Hash)
		return false
	}

	e.log.Infof("Successfully added torrent %s: %s", rec.Hash, detail)
	return true
}

// ProcessAll submits every record not in existing, one at a time, and returns
// how many were added.
func (e *Engine) ProcessAll(ctx context.Context, records []magnet.Record, existing *strset.Set) int {
	_, _, added := e.process(ctx, records, existing)
	return added
}

func (e *Engine) process(ctx context.Context, records []magnet.Record, existing *strset.Set) (processed int, attempted int, added int) {
	total := len(records)

	for idx, rec := range records {
		if ctx.Err() != nil {
			e.log.Warnf("Stopping after %d/%d records: %v", idx, total, ctx.Err())
			break
		}
		processed++

		hash := rec.Key()
		if existing != nil && existing.Has(hash) {
			e.log.Infof("Skipping existing torrent (%d/%d): %s", idx+1, total, hash)
			continue
		}

		attempted++
		if e.CreateRecord(ctx, rec) {
			added++
		}

		e.log.Infof("Progress: %d/%d processed (%d added)", idx+1, total, added)

		if !e.opts.DryRun {
			if err := httputils.Sleep(ctx, e.opts.Delay); err != nil {
				continue
			}
		}
	}

	e.log.Infof("Completed processing %s magnets. Successfully added %s new torrents.",
		humanize.Comma(int64(total)), humanize.Comma(int64(added)))
	return processed, attempted, added
}

// Run fetches the remote state and processes records against it.
func (e *Engine) Run(ctx context.Context, records []magnet.Record) Outcome {
	start := time.Now()

	existing := e.FetchExistingHashes(ctx)
	processed, attempted, added := e.process(ctx, records, existing)

	return Outcome{
		Processed: processed,
		Attempted: attempted,
		Added:     added,
		Duration:  time.Since(start),
	}
}
