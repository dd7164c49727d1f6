// File: internal/infra/api/catalog.go
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"car-deal-negotiator/internal/domain/model"
)

// Catalog operations: thin method+path+body mappings onto the generic
// request primitive. No business logic lives here.

func (c *Client) SearchVehicles(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	vals := url.Values{}
	if q.Make != "" {
		vals.Set("make", q.Make)
	}
	if q.Model != "" {
		vals.Set("model", q.Model)
	}
	if q.YearMin > 0 {
		vals.Set("year_min", strconv.Itoa(q.YearMin))
	}
	if q.YearMax > 0 {
		vals.Set("year_max", strconv.Itoa(q.YearMax))
	}
	if q.PriceMax > 0 {
		vals.Set("price_max", strconv.FormatFloat(q.PriceMax, 'f', -1, 64))
	}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		vals.Set("page_size", strconv.Itoa(q.PageSize))
	}
	path := "/api/v1/cars/search"
	if enc := vals.Encode(); enc != "" {
		path += "?" + enc
	}
	var out model.SearchResult
	if err := c.doJSON(ctx, "cars.search", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDeal(ctx context.Context, dealID string) (*model.Deal, error) {
	var out model.Deal
	if err := c.doJSON(ctx, "deals.get", http.MethodGet, "/api/v1/deals/"+url.PathEscape(dealID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type createDealRequest struct {
	VehicleID   string  `json:"vehicle_id"`
	AskingPrice float64 `json:"asking_price"`
	DealerName  string  `json:"dealer_name,omitempty"`
}

func (c *Client) CreateDeal(ctx context.Context, vehicleID string, askingPrice float64, dealerName string) (*model.Deal, error) {
	var out model.Deal
	body := createDealRequest{VehicleID: vehicleID, AskingPrice: askingPrice, DealerName: dealerName}
	if err := c.doJSON(ctx, "deals.create", http.MethodPost, "/api/v1/deals/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFavorites(ctx context.Context) ([]model.Favorite, error) {
	var out struct {
		Favorites []model.Favorite `json:"favorites"`
	}
	if err := c.doJSON(ctx, "favorites.list", http.MethodGet, "/api/v1/favorites/", nil, &out); err != nil {
		return nil, err
	}
	return out.Favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, vehicleID string) (*model.Favorite, error) {
	var out model.Favorite
	body := struct {
		VehicleID string `json:"vehicle_id"`
	}{vehicleID}
	if err := c.doJSON(ctx, "favorites.add", http.MethodPost, "/api/v1/favorites/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, favoriteID string) error {
	return c.doJSON(ctx, "favorites.remove", http.MethodDelete, "/api/v1/favorites/"+url.PathEscape(favoriteID), nil, nil)
}

func (c *Client) ListSavedSearches(ctx context.Context) ([]model.SavedSearch, error) {
	var out struct {
		SavedSearches []model.SavedSearch `json:"saved_searches"`
	}
	if err := c.doJSON(ctx, "savedsearches.list", http.MethodGet, "/api/v1/saved-searches/", nil, &out); err != nil {
		return nil, err
	}
	return out.SavedSearches, nil
}

func (c *Client) CreateSavedSearch(ctx context.Context, name string, q model.SearchQuery) (*model.SavedSearch, error) {
	var out model.SavedSearch
	body := struct {
		Name  string            `json:"name"`
		Query model.SearchQuery `json:"query"`
	}{name, q}
	if err := c.doJSON(ctx, "savedsearches.create", http.MethodPost, "/api/v1/saved-searches/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSavedSearch(ctx context.Context, id string) error {
	return c.doJSON(ctx, "savedsearches.delete", http.MethodDelete, "/api/v1/saved-searches/"+url.PathEscape(id), nil, nil)
}

func (c *Client) StartEvaluation(ctx context.Context, dealID string) (*model.DealEvaluation, error) {
	var out model.DealEvaluation
	body := struct {
		DealID string `json:"deal_id"`
	}{dealID}
	if err := c.doJSON(ctx, "evaluation.start", http.MethodPost, "/api/v1/evaluations/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEvaluation(ctx context.Context, evaluationID string) (*model.DealEvaluation, error) {
	var out model.DealEvaluation
	path := "/api/v1/evaluations/" + url.PathEscape(evaluationID) + "/evaluation"
	if err := c.doJSON(ctx, "evaluation.get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitEvaluationAnswers(ctx context.Context, evaluationID string, answers map[string]string) (*model.DealEvaluation, error) {
	var out model.DealEvaluation
	body := struct {
		Answers map[string]string `json:"answers"`
	}{answers}
	path := "/api/v1/evaluations/" + url.PathEscape(evaluationID) + "/answers"
	if err := c.doJSON(ctx, "evaluation.answers", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
