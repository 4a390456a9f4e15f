package connector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tombee/code42-connector/internal/code42"
	"github.com/tombee/code42-connector/internal/log"
	"github.com/tombee/code42-connector/internal/secrets"
	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// Action identifiers.
const (
	ActionTestConnectivity        = "test_connectivity"
	ActionAddDepartingEmployee    = "add_departing_employee"
	ActionRemoveDepartingEmployee = "remove_departing_employee"
	ActionGetAlertDetails         = "get_alert_details"
	ActionSearchAlerts            = "search_alerts"
)

// searchDateLayout is the accepted format of search_alerts dates.
const searchDateLayout = "2006-01-02"

type handlerFunc func(ctx context.Context, result *ActionResult, p params) error

type action struct {
	info    ActionInfo
	handler handlerFunc
}

// ActionInfo describes an available action.
type ActionInfo struct {
	Identifier  string      `json:"identifier"`
	Description string      `json:"description"`
	Parameters  []ParamInfo `json:"parameters,omitempty"`
}

// ParamInfo describes one action parameter.
type ParamInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// actionFailure is reported as the result message verbatim, without the
// "Failed execution" prefix.
type actionFailure struct {
	message string
	cause   error
}

func (e *actionFailure) Error() string {
	return e.message
}

func (e *actionFailure) Unwrap() error {
	return e.cause
}

func fail(cause error, format string, args ...interface{}) error {
	return &actionFailure{message: fmt.Sprintf(format, args...), cause: cause}
}

func (c *Connector) register(info ActionInfo, handler handlerFunc) {
	c.actions[info.Identifier] = &action{info: info, handler: handler}
	c.order = append(c.order, info.Identifier)
}

func (c *Connector) registerActions() {
	c.register(ActionInfo{
		Identifier:  ActionTestConnectivity,
		Description: "Validate the asset configuration for connectivity",
	}, c.handleTestConnectivity)

	c.register(ActionInfo{
		Identifier:  ActionAddDepartingEmployee,
		Description: "Add a user to the departing employee list",
		Parameters: []ParamInfo{
			{Name: "username", Description: "Code42 username of the user", Required: true},
			{Name: "departure_date", Description: "Departure date (YYYY-MM-DD)"},
			{Name: "note", Description: "Note to attach to the user"},
		},
	}, c.handleAddDepartingEmployee)

	c.register(ActionInfo{
		Identifier:  ActionRemoveDepartingEmployee,
		Description: "Remove a user from the departing employee list",
		Parameters: []ParamInfo{
			{Name: "username", Description: "Code42 username of the user", Required: true},
		},
	}, c.handleRemoveDepartingEmployee)

	c.register(ActionInfo{
		Identifier:  ActionGetAlertDetails,
		Description: "Get the details of an alert",
		Parameters: []ParamInfo{
			{Name: "alert_id", Description: "ID of the alert", Required: true},
		},
	}, c.handleGetAlertDetails)

	c.register(ActionInfo{
		Identifier:  ActionSearchAlerts,
		Description: "Search alerts by actor, date range and state",
		Parameters: []ParamInfo{
			{Name: "username", Description: "Actor username"},
			{Name: "start_date", Description: "Start of the date range (YYYY-MM-DD)"},
			{Name: "end_date", Description: "End of the date range, at midnight (YYYY-MM-DD)"},
			{Name: "alert_state", Description: "One of " + strings.Join(code42.AlertStates, ", ")},
		},
	}, c.handleSearchAlerts)
}

// Catalog lists the actions without configuring a connector.
func Catalog() []ActionInfo {
	return New(Options{Secrets: secrets.NewResolver()}).Actions()
}

// Lookup returns the action with the given identifier.
func Lookup(identifier string) (ActionInfo, bool) {
	for _, info := range Catalog() {
		if info.Identifier == identifier {
			return info, true
		}
	}
	return ActionInfo{}, false
}

// Actions lists the available actions in registration order.
func (c *Connector) Actions() []ActionInfo {
	out := make([]ActionInfo, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.actions[id].info)
	}
	return out
}

func (c *Connector) handleTestConnectivity(ctx context.Context, result *ActionResult, p params) error {
	c.saveProgress("Connecting to endpoint")

	client, err := c.code42Client(ctx)
	if err == nil {
		_, err = client.Users.GetCurrent(ctx)
	}
	if err != nil {
		return fail(err, "Unable to connect to Code42: %s", err)
	}

	c.saveProgress("Test Connectivity Passed")
	result.SetStatus(StatusSuccess, "Test Connectivity Passed")
	return nil
}

func (c *Connector) handleAddDepartingEmployee(ctx context.Context, result *ActionResult, p params) error {
	username, err := p.Required("username")
	if err != nil {
		return err
	}
	departureDate, _ := p.String("departure_date")
	if departureDate != "" {
		if _, err := time.Parse(code42.DepartureDateLayout, departureDate); err != nil {
			return &c42errors.ValidationError{
				Field:   "departure_date",
				Message: fmt.Sprintf("departure date '%s' must be in format YYYY-MM-DD", departureDate),
			}
		}
	}

	client, err := c.code42Client(ctx)
	if err != nil {
		return err
	}

	userID, err := c.lookupUserID(ctx, client, username)
	if err != nil {
		return err
	}

	resp, err := client.DepartingEmployee.Add(ctx, userID, departureDate)
	if err != nil {
		return err
	}

	if note, ok := p.String("note"); ok {
		if err := client.DetectionLists.UpdateUserNotes(ctx, userID, note); err != nil {
			return fmt.Errorf("%s was added to the departing employee list but the note was not saved: %w", username, err)
		}
	}

	result.AddData(responseData(resp, userID))
	result.UpdateSummary(map[string]interface{}{"user_id": userID, "username": username})
	result.SetStatus(StatusSuccess, fmt.Sprintf("%s was added to the departing employee list", username))
	return nil
}

func (c *Connector) handleRemoveDepartingEmployee(ctx context.Context, result *ActionResult, p params) error {
	username, err := p.Required("username")
	if err != nil {
		return err
	}

	client, err := c.code42Client(ctx)
	if err != nil {
		return err
	}

	userID, err := c.lookupUserID(ctx, client, username)
	if err != nil {
		return err
	}

	resp, err := client.DepartingEmployee.Remove(ctx, userID)
	if err != nil {
		return err
	}

	result.AddData(responseData(resp, userID))
	result.UpdateSummary(map[string]interface{}{"user_id": userID, "username": username})
	result.SetStatus(StatusSuccess, fmt.Sprintf("%s was removed from the departing employee list", username))
	return nil
}

func (c *Connector) handleGetAlertDetails(ctx context.Context, result *ActionResult, p params) error {
	alertID, err := p.Required("alert_id")
	if err != nil {
		return err
	}

	client, err := c.code42Client(ctx)
	if err != nil {
		return err
	}

	details, err := client.Alerts.GetDetails(ctx, []string{alertID})
	if err != nil {
		return err
	}
	if len(details.Alerts) == 0 {
		return &c42errors.NotFoundError{Resource: "Alert", ID: alertID}
	}

	alert := details.Alerts[0]
	result.AddData(alert)
	result.UpdateSummary(map[string]interface{}{"username": alert.Actor(), "user_id": alert.ActorID()})
	result.SetStatus(StatusSuccess, "")
	return nil
}

func (c *Connector) handleSearchAlerts(ctx context.Context, result *ActionResult, p params) error {
	username, hasUsername := p.String("username")
	startDate, hasStart := p.String("start_date")
	endDate, hasEnd := p.String("end_date")
	alertState, hasState := p.String("alert_state")

	if !hasUsername && !hasStart && !hasEnd && !hasState {
		return fail(&c42errors.ValidationError{Message: "no search term"}, "Must supply a search term.")
	}
	if hasStart != hasEnd {
		return fail(&c42errors.ValidationError{Field: "start_date"},
			"Start Date and End Date are both required to search by date range.")
	}

	var groups []code42.FilterGroup
	if hasUsername {
		groups = append(groups, code42.Actor.Eq(username))
	}

	if hasStart {
		dateRange, err := buildDateRange(startDate, endDate)
		if err != nil {
			return err
		}
		groups = append(groups, dateRange)
	}

	if hasState {
		state, err := code42.ParseAlertState(alertState)
		if err != nil {
			return fail(&c42errors.ValidationError{Field: "alert_state", Message: err.Error()},
				"Invalid alert state '%s' (must be one of %s)", alertState, strings.Join(code42.AlertStates, ", "))
		}
		groups = append(groups, code42.AlertState.Eq(state))
	}

	client, err := c.code42Client(ctx)
	if err != nil {
		return err
	}

	query := code42.AllOf(groups...)
	log.Trace(c.logger, "searching alerts", slog.String("query", query.String()))

	resp, err := client.Alerts.Search(ctx, query)
	if err != nil {
		return err
	}

	result.AddData(resp)
	result.UpdateSummary(map[string]interface{}{"total_count": resp.TotalCount})
	result.SetStatus(StatusSuccess, fmt.Sprintf("Found %d alert(s)", resp.TotalCount))
	return nil
}

// buildDateRange turns day bounds into a range filter from start 00:00:00
// to end 00:00:00, UTC. Alerts later on the end day are not matched.
func buildDateRange(startDate, endDate string) (code42.FilterGroup, error) {
	start, err := time.Parse(searchDateLayout, startDate)
	if err == nil {
		_, err = time.Parse(searchDateLayout, endDate)
	}
	if err != nil {
		return code42.FilterGroup{}, fail(&c42errors.ValidationError{Field: "start_date", Message: err.Error()},
			"Start Date and End Date must be in format YYYY-mm-dd: %s", err)
	}

	end, _ := time.Parse(searchDateLayout, endDate)
	if end.Before(start) {
		return code42.FilterGroup{}, fail(&c42errors.ValidationError{Field: "end_date"},
			"End Date %s is before Start Date %s.", endDate, startDate)
	}

	return code42.DateObserved.InRange(startDate+" 00:00:00", endDate+" 00:00:00")
}

// lookupUserID resolves a username to its Code42 user UID.
func (c *Connector) lookupUserID(ctx context.Context, client *code42.Client, username string) (string, error) {
	users, err := client.Users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if len(users.Users) == 0 {
		return "", &c42errors.NotFoundError{Resource: "User", ID: username, Reason: "does not exist"}
	}

	userID := users.Users[0].UserUID
	c.logger.Debug("resolved user", "username", log.SanitizeUsername(username), "user_id", userID)
	return userID, nil
}

// responseData returns resp, or a stand-in naming the user when the API
// answered with an empty body.
func responseData(resp map[string]interface{}, userID string) map[string]interface{} {
	if len(resp) == 0 {
		return map[string]interface{}{"userId": userID}
	}
	return resp
}
