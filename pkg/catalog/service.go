package catalog

import (
	"context"

	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Stats are the counts shown on the catalog home page.
type Stats struct {
	NumBooks              int `json:"num_books"`
	NumInstances          int `json:"num_instances"`
	NumInstancesAvailable int `json:"num_instances_available"`
	NumAuthors            int `json:"num_authors"`
	NumGenres             int `json:"num_genres"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		model  interface{}
		status string
		dest   *int
	}{
		{(*models.Book)(nil), "", &stats.NumBooks},
		{(*models.BookInstance)(nil), "", &stats.NumInstances},
		{(*models.BookInstance)(nil), models.LoanStatusAvailable, &stats.NumInstancesAvailable},
		{(*models.Author)(nil), "", &stats.NumAuthors},
		{(*models.Genre)(nil), "", &stats.NumGenres},
	}

	for _, c := range counts {
		q := svc.db.NewSelect().Model(c.model)
		if c.status != "" {
			q = q.Where("status = ?", c.status)
		}
		n, err := q.Count(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		*c.dest = n
	}

	return stats, nil
}
