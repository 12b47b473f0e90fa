package netsuite

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// Page sizes accepted by NetSuite collection endpoints.
const (
	DefaultRecordPageSize  = 100
	DefaultSuiteQLPageSize = 1000
	MaxPageSize            = 1000
)

// errNotPaged is returned when a collection endpoint answers with a non-paged body.
var errNotPaged = errors.New("response is not a paged collection")

// PageOptions control how many rows Collect gathers.
type PageOptions struct {
	// ReturnAll fetches every page until hasMore is false.
	ReturnAll bool
	// Limit is the maximum number of rows when ReturnAll is false.
	Limit int
	// Offset is the starting row of the first page.
	Offset int
	// DefaultPageSize applies when Limit is zero. Defaults to DefaultRecordPageSize.
	DefaultPageSize int
	// MaxPageSize caps the page size. Defaults to MaxPageSize.
	MaxPageSize int
}

// Paginator walks NetSuite's hasMore/links.next collections.
type Paginator struct {
	exec       RequestExecutor
	normaliser *Normaliser
	logger     *zap.Logger
}

// NewPaginator creates a paginator.
func NewPaginator(exec RequestExecutor, normaliser *Normaliser, logger *zap.Logger) *Paginator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normaliser == nil {
		normaliser = NewNormaliser(logger)
	}
	return &Paginator{exec: exec, normaliser: normaliser, logger: logger}
}

// Collect fetches pages of template until the limit is reached or the server
// reports no more rows. Pages are fetched in order, one at a time. A page may
// be fetched in full while only a prefix of it is kept.
func (p *Paginator) Collect(
	ctx context.Context,
	ec *domain.ExecutionContext,
	template *domain.Request,
	opts PageOptions,
) ([]domain.Item, error) {
	maxSize := opts.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = opts.DefaultPageSize
		if limit <= 0 {
			limit = DefaultRecordPageSize
		}
	}
	pageSize := min(limit, maxSize)
	if opts.ReturnAll {
		pageSize = maxSize
	}

	req := template.Clone()
	if req.Query == nil {
		req.Query = make(map[string][]string)
	}
	req.Query.Set("limit", strconv.Itoa(pageSize))
	req.Query.Set("offset", strconv.Itoa(max(opts.Offset, 0)))

	acc := make([]domain.Item, 0)
	for page := 1; ; page++ {
		resp, err := p.exec.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			_, err := p.normaliser.Handle(ec, resp, false)
			return nil, err
		}

		body, err := domain.ParseBody(resp.StatusCode, resp.Body)
		if err != nil {
			return nil, err
		}
		if body.Kind != domain.BodyPaged {
			return nil, errNotPaged
		}

		paged := body.Paged
		next := paged.NextLink()
		ec.RecordPage(paged, next)

		for _, item := range paged.Items {
			if !opts.ReturnAll && len(acc) >= limit {
				break
			}
			acc = append(acc, item)
		}

		p.logger.Debug("collected page",
			zap.Int("page", page),
			zap.Int("items", len(paged.Items)),
			zap.Int("accumulated", len(acc)),
			zap.Bool("has_more", paged.HasMore))

		if !paged.HasMore || (!opts.ReturnAll && len(acc) >= limit) {
			break
		}
		if next == "" {
			p.logger.Warn("hasMore is set but no next link was returned; stopping")
			break
		}

		req = template.Clone()
		req.NextURL = next
	}
	return acc, nil
}
