package sweep

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/diff"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

// DefaultIgnorableFields are snapshot keys whose updates never count as a
// material change: they churn on every fetch.
var DefaultIgnorableFields = []string{"depreciation", "updated_on"}

var listingsSwept = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "sweep_listings_total",
	Help: "Listings processed by the ingestion sweep, by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(listingsSwept)
}

// Sweeper walks the marketplace for every configured search term and keeps
// the tracked listings table current. Listings are never deleted: a listing
// that disappears from the results simply stops receiving updates.
type Sweeper struct {
	db       *gorm.DB
	client   Client
	differ   *diff.Differ
	maxPages int
	now      func() time.Time
	log      zerolog.Logger
}

// New builds a sweeper. maxPages caps pagination per term as a runaway
// guard.
func New(db *gorm.DB, client Client, differ *diff.Differ, maxPages int, log zerolog.Logger) *Sweeper {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Sweeper{
		db:       db,
		client:   client,
		differ:   differ,
		maxPages: maxPages,
		now:      time.Now,
		log:      log,
	}
}

// Run executes one full sweep over every search term. A term that fails is
// logged and skipped; the sweep continues with the rest.
func (s *Sweeper) Run(ctx context.Context) error {
	terms, err := repo.ListSearchTerms(ctx, s.db)
	if err != nil {
		return err
	}
	s.log.Info().Int("terms", len(terms)).Msg("sweep started")

	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sweepTerm(ctx, term); err != nil {
			s.log.Error().Err(err).Str("term", term.Term).Msg("term sweep failed")
		}
	}
	s.log.Info().Msg("sweep finished")
	return nil
}

// sweepTerm pages through one term's results until a short page or the page
// cap.
func (s *Sweeper) sweepTerm(ctx context.Context, term domain.SearchTerm) error {
	perPage := term.ItemsPerPage
	if perPage < 1 {
		perPage = 20
	}

	for page := 0; page < s.maxPages; page++ {
		listings, err := s.client.LatestUsed(ctx, term, page)
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			return nil
		}
		if err := s.processPage(ctx, term, listings); err != nil {
			return err
		}
		// A short page is the last one.
		if len(listings) < perPage {
			return nil
		}
	}
	s.log.Warn().Str("term", term.Term).Int("pages", s.maxPages).Msg("page cap reached")
	return nil
}

func (s *Sweeper) processPage(ctx context.Context, term domain.SearchTerm, listings []Listing) error {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ExternalID)
	}
	tracked, err := repo.ListTrackedByExternalIDs(ctx, s.db, ids)
	if err != nil {
		return err
	}
	known := make(map[string]domain.TrackedListing, len(tracked))
	for _, t := range tracked {
		known[t.ExternalID] = t
	}

	var fresh []domain.TrackedListing
	for _, l := range listings {
		info, err := s.client.ListingInfo(ctx, l.ExternalID)
		if err != nil {
			s.log.Warn().Err(err).Str("listing", l.ExternalID).Msg("detail fetch failed")
			continue
		}
		snapshot, err := json.Marshal(info)
		if err != nil {
			return err
		}

		old, ok := known[l.ExternalID]
		if !ok {
			listingsSwept.WithLabelValues("new").Inc()
			fresh = append(fresh, domain.TrackedListing{
				ExternalID:   l.ExternalID,
				Name:         l.Name,
				Snapshot:     string(snapshot),
				SearchTermID: term.ID,
			})
			continue
		}

		res, err := s.differ.Classify([]byte(old.Snapshot), snapshot)
		if err != nil {
			s.log.Warn().Err(err).Str("listing", l.ExternalID).Msg("snapshot compare failed")
			continue
		}
		if res.Empty() || !s.differ.Material(res) {
			listingsSwept.WithLabelValues("unchanged").Inc()
			continue
		}

		listingsSwept.WithLabelValues("updated").Inc()
		if _, err := repo.AppendHistory(ctx, s.db, l.ExternalID, old.Snapshot, string(snapshot), s.now().UTC()); err != nil {
			return err
		}
		if err := repo.UpdateTrackedSnapshot(ctx, s.db, l.ExternalID, string(snapshot)); err != nil {
			return err
		}
	}
	return repo.InsertTracked(ctx, s.db, fresh)
}
