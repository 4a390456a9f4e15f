package code42

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DepartureDateLayout is the accepted format for departure dates.
const DepartureDateLayout = "2006-01-02"

// DetectionListsService wraps detection-list profile endpoints shared by all lists.
type DetectionListsService struct {
	client *Client
}

// UpdateUserNotes replaces the notes on a user's detection-list profile.
func (s *DetectionListsService) UpdateUserNotes(ctx context.Context, userID, notes string) error {
	tenantID, err := s.client.TenantID(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"tenantId": tenantID,
		"userId":   userID,
		"notes":    notes,
	}
	return s.client.do(ctx, http.MethodPost, "/svc/api/v2/user/updatenotes", nil, body, nil)
}

// DepartingEmployeeService wraps the departing-employee detection list.
type DepartingEmployeeService struct {
	client *Client
}

// Add places a user on the departing-employee list. departureDate is
// optional and must be YYYY-MM-DD when set. The raw API response is returned.
func (s *DepartingEmployeeService) Add(ctx context.Context, userID, departureDate string) (map[string]interface{}, error) {
	if departureDate != "" {
		if _, err := time.Parse(DepartureDateLayout, departureDate); err != nil {
			return nil, fmt.Errorf("departure date %q must be in format YYYY-MM-DD", departureDate)
		}
	}

	tenantID, err := s.client.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"tenantId": tenantID,
		"userId":   userID,
	}
	if departureDate != "" {
		body["departureDate"] = departureDate
	}

	var resp map[string]interface{}
	if err := s.client.do(ctx, http.MethodPost, "/svc/api/v2/departingemployee/add", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Remove takes a user off the departing-employee list. The API usually
// answers with an empty body, in which case the returned map is nil.
func (s *DepartingEmployeeService) Remove(ctx context.Context, userID string) (map[string]interface{}, error) {
	tenantID, err := s.client.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"tenantId": tenantID,
		"userId":   userID,
	}

	var resp map[string]interface{}
	if err := s.client.do(ctx, http.MethodPost, "/svc/api/v2/departingemployee/remove", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
