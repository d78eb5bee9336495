package app

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
)

// SweepResult summarises one orphan sweep.
type SweepResult struct {
	Scanned int
	Deleted int
	Failed  int
}

// OrphanSweeper deletes uploaded objects that no record references, such as proofs left
// behind when a contribution insert failed after its upload.
type OrphanSweeper struct {
	archive  proof.Archive
	refs     store.ReferenceLister
	prefixes []string
	grace    time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewOrphanSweeper(archive proof.Archive, refs store.ReferenceLister, prefixes []string, grace time.Duration, logger logging.Logger) *OrphanSweeper {
	if grace <= 0 {
		grace = time.Hour
	}
	return &OrphanSweeper{
		archive:  archive,
		refs:     refs,
		prefixes: prefixes,
		grace:    grace,
		logger:   logging.Component(logger, "orphan_sweeper"),
		now:      time.Now,
	}
}

// Run lists objects older than the grace period and deletes the unreferenced ones.
// Objects are listed before references are loaded, so an upload whose record is written
// during the sweep is never mistaken for an orphan.
func (s *OrphanSweeper) Run(ctx context.Context) (SweepResult, error) {
	var (
		result     SweepResult
		candidates []proof.Object
	)
	cutoff := s.now().Add(-s.grace)
	for _, prefix := range s.prefixes {
		objects, err := s.archive.List(ctx, prefix)
		if err != nil {
			return result, err
		}
		for _, obj := range objects {
			result.Scanned++
			if obj.ModifiedAt.Before(cutoff) {
				candidates = append(candidates, obj)
			}
		}
	}
	if len(candidates) == 0 {
		return result, nil
	}

	referenced, err := s.refs.ListReferencedURLs(ctx)
	if err != nil {
		return result, err
	}

	index := indexReferences(referenced)
	for _, obj := range candidates {
		if index.references(obj.Key) {
			continue
		}
		if err := s.archive.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn().Err(err).Str("key", obj.Key).Msg("delete failed")
			result.Failed++
			continue
		}
		s.logger.Info().Str("key", obj.Key).Msg("orphaned object deleted")
		result.Deleted++
	}
	return result, nil
}

// referenceIndex groups referenced URL paths by their last segment. Objects are matched
// on their storage key, so a change of public base URL never orphans a stored object.
type referenceIndex map[string][]string

func indexReferences(urls map[string]struct{}) referenceIndex {
	index := referenceIndex{}
	for raw := range urls {
		p := raw
		if u, err := url.Parse(raw); err == nil && u.Path != "" {
			p = u.Path
		}
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		base := path.Base(p)
		index[base] = append(index[base], p)
	}
	return index
}

func (idx referenceIndex) references(key string) bool {
	key = strings.Trim(key, "/")
	for _, p := range idx[path.Base(key)] {
		if p == key || strings.HasSuffix(p, "/"+key) {
			return true
		}
	}
	return false
}

// Sweep runs one sweep with a bounded timeout; it is the cron entry point.
func (s *OrphanSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("orphan sweep failed")
		return
	}
	s.logger.Info().Int("scanned", result.Scanned).Int("deleted", result.Deleted).Int("failed", result.Failed).Msg("orphan sweep finished")
}
