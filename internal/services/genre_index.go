package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"marquee/internal/models"
	"marquee/internal/repository"
)

const defaultGenreScanSize = 500

// GenreIndex answers genre-filtered reads against the mirror. Callers do not
// know how membership is stored; a join-table backed index would satisfy the
// same contract.
type GenreIndex interface {
	FilterByGenre(ctx context.Context, m models.MediaType, genreID int, limit int) ([]models.CatalogItem, error)
}

// ScanGenreIndex works around genre sets being stored as a serialized blob.
// It reads the ScanSize most popular visible rows, decodes each blob and
// keeps rows containing the genre. If genres are skewed, fewer than limit
// items may survive; raise ScanSize in that case.
type ScanGenreIndex struct {
	store    repository.CatalogStore
	scanSize int
	logger   *logrus.Logger
}

func NewScanGenreIndex(store repository.CatalogStore, scanSize int, logger *logrus.Logger) *ScanGenreIndex {
	if scanSize <= 0 {
		scanSize = defaultGenreScanSize
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ScanGenreIndex{store: store, scanSize: scanSize, logger: logger}
}

func (g *ScanGenreIndex) ScanSize() int {
	return g.scanSize
}

func (g *ScanGenreIndex) FilterByGenre(ctx context.Context, m models.MediaType, genreID int, limit int) ([]models.CatalogItem, error) {
	rows, err := g.store.FindMany(ctx, repository.VisibleOf(m), repository.OrderPopularity, g.scanSize)
	if err != nil {
		return nil, fmt.Errorf("genre scan: %w", err)
	}

	out := make([]models.CatalogItem, 0, limit)
	undecodable := 0
	for _, row := range rows {
		item, err := row.Item()
		if err != nil {
			undecodable++
			continue
		}
		if !item.HasGenre(genreID) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	fields := logrus.Fields{
		"media_type": m,
		"genre_id":   genreID,
		"scanned":    len(rows),
		"matched":    len(out),
	}
	if undecodable > 0 {
		fields["undecodable"] = undecodable
		g.logger.WithFields(fields).Warn("Genre scan skipped rows with unreadable genre blobs")
	} else {
		g.logger.WithFields(fields).Debug("Genre scan complete")
	}

	return out, nil
}
