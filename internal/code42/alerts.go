package code42

import (
	"context"
	"fmt"
	"net/http"
)

// Alert is a single alert as returned by the alerts service. Fields are
// kept as decoded JSON so that every attribute reaches the action result.
type Alert map[string]interface{}

// Actor returns the username that triggered the alert.
func (a Alert) Actor() string {
	return a.stringField("actor")
}

// ActorID returns the user UID that triggered the alert.
func (a Alert) ActorID() string {
	return a.stringField("actorId")
}

func (a Alert) stringField(key string) string {
	if v, ok := a[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// AlertDetails is the response of a details lookup.
type AlertDetails struct {
	Alerts []Alert `json:"alerts"`
}

// AlertSearchResult is the response of an alert search.
type AlertSearchResult struct {
	Type       string        `json:"type$,omitempty"`
	Alerts     []Alert       `json:"alerts"`
	TotalCount int           `json:"totalCount"`
	Problems   []interface{} `json:"problems,omitempty"`
}

// AlertsService wraps the alerts microservice.
type AlertsService struct {
	client *Client
}

// GetDetails returns full details for the given alert ids.
func (s *AlertsService) GetDetails(ctx context.Context, alertIDs []string) (*AlertDetails, error) {
	if len(alertIDs) == 0 {
		return nil, fmt.Errorf("at least one alert id is required")
	}

	tenantID, err := s.client.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"tenantId": tenantID,
		"alertIds": alertIDs,
	}

	var resp AlertDetails
	if err := s.client.do(ctx, http.MethodPost, "/svc/api/v1/query-details", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs an alert query. The query's tenant id is filled in when empty.
func (s *AlertsService) Search(ctx context.Context, query *AlertQuery) (*AlertSearchResult, error) {
	if query == nil {
		return nil, fmt.Errorf("query is required")
	}

	if query.TenantID == "" {
		tenantID, err := s.client.TenantID(ctx)
		if err != nil {
			return nil, err
		}
		q := *query
		q.TenantID = tenantID
		query = &q
	}

	var resp AlertSearchResult
	if err := s.client.do(ctx, http.MethodPost, "/svc/api/v1/query-alerts", nil, query, &resp); err != nil {
		return nil, err
	}
	if resp.Alerts == nil {
		resp.Alerts = []Alert{}
	}
	return &resp, nil
}
