package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *ServiceAdapter) selectJoined() *goqu.SelectDataset {
	return a.db.From(goqu.T("services").As("s")).
		Join(goqu.T("providers").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("s.provider_id")))).
		Select(
			"s.id", "s.title", "s.description", "s.category", "s.price_per_hour",
			"s.rating", "s.review_count", "s.provider_id", "s.images", "s.availability",
			"s.location", "s.created_at", "s.updated_at",
			goqu.I("p.name").As("provider_name"),
			goqu.I("p.avatar").As("provider_avatar"),
			goqu.I("p.rating").As("provider_rating"),
			goqu.I("p.review_count").As("provider_review_count"),
			goqu.I("p.verified").As("provider_verified"),
			goqu.I("p.location").As("provider_location"),
		)
}

// GetByID retrieves a service with its provider summary
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, _, err := a.selectJoined().Where(goqu.I("s.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row serviceRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get service", err)
	}
	return row.toEntity(), nil
}

func serviceConditions(filter repositories.ServiceFilter) []exp.Expression {
	var where []exp.Expression
	if filter.Category != "" {
		where = append(where, goqu.I("s.category").Eq(string(filter.Category)))
	}
	if filter.ProviderID != "" {
		where = append(where, goqu.I("s.provider_id").Eq(filter.ProviderID))
	}
	if filter.MinPrice > 0 {
		where = append(where, goqu.I("s.price_per_hour").Gte(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		where = append(where, goqu.I("s.price_per_hour").Lte(filter.MaxPrice))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		where = append(where, goqu.Or(
			goqu.I("s.title").ILike(pattern),
			goqu.I("s.description").ILike(pattern),
		))
	}
	return where
}

func serviceOrder(by repositories.ServiceSort) []exp.OrderedExpression {
	switch by {
	case repositories.SortByPriceLow:
		return []exp.OrderedExpression{goqu.I("s.price_per_hour").Asc(), goqu.I("s.id").Asc()}
	case repositories.SortByPriceHigh:
		return []exp.OrderedExpression{goqu.I("s.price_per_hour").Desc(), goqu.I("s.id").Asc()}
	case repositories.SortByReviews:
		return []exp.OrderedExpression{goqu.I("s.review_count").Desc(), goqu.I("s.id").Asc()}
	default:
		return []exp.OrderedExpression{goqu.I("s.rating").Desc(), goqu.I("s.id").Asc()}
	}
}

// List returns one page of matching services and the total match count
func (a *ServiceAdapter) List(ctx context.Context, filter repositories.ServiceFilter) ([]*entities.Service, int, error) {
	where := serviceConditions(filter)

	countQuery, _, err := a.db.From(goqu.T("services").As("s")).
		Select(goqu.COUNT("*")).
		Where(where...).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DBX().GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count services", err)
	}

	ds := a.selectJoined().Where(where...).Order(serviceOrder(filter.Sort)...)
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []serviceRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list services", err)
	}

	services := make([]*entities.Service, 0, len(rows))
	for i := range rows {
		services = append(services, rows[i].toEntity())
	}
	return services, total, nil
}

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a provider with its full profile
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.DetailedProvider, error) {
	query, _, err := a.db.From("providers").Select(providerColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row providerRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	return row.toEntity()
}
