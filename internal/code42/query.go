package code42

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Clause joins filters inside a group, or groups inside a query.
type Clause string

// ClauseAnd requires every filter or group to match.
const ClauseAnd Clause = "AND"

// Filter operators understood by the alerts service.
const (
	OperatorIs         = "IS"
	OperatorOnOrAfter  = "ON_OR_AFTER"
	OperatorOnOrBefore = "ON_OR_BEFORE"
)

// Alert states.
const (
	AlertStateOpen       = "OPEN"
	AlertStateResolved   = "RESOLVED"
	AlertStatePending    = "PENDING"
	AlertStateInProgress = "IN_PROGRESS"
)

// AlertStates lists the valid alert states.
var AlertStates = []string{AlertStateOpen, AlertStateResolved, AlertStatePending, AlertStateInProgress}

// QueryTimeLayout is the accepted input format for date range bounds.
const QueryTimeLayout = "2006-01-02 15:04:05"

// queryTimestampLayout is the wire format for timestamp filter values.
const queryTimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	defaultPageSize = 500
	defaultSortKey  = "CreatedAt"
	defaultSortDir  = "desc"
)

// Filter is a single term/operator/value condition.
type Filter struct {
	Term     string `json:"term"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// FilterGroup combines filters with a clause.
type FilterGroup struct {
	FilterClause Clause   `json:"filterClause"`
	Filters      []Filter `json:"filters"`
}

// AlertQuery is the request body of an alert search.
type AlertQuery struct {
	TenantID    string        `json:"tenantId"`
	GroupClause Clause        `json:"groupClause"`
	Groups      []FilterGroup `json:"groups"`
	PageNumber  int           `json:"pgNum"`
	PageSize    int           `json:"pgSize"`
	SortKey     string        `json:"srtKey"`
	SortDir     string        `json:"srtDirection"`
}

// AllOf builds a query matching alerts that satisfy every group.
func AllOf(groups ...FilterGroup) *AlertQuery {
	return newAlertQuery(ClauseAnd, groups)
}

func newAlertQuery(clause Clause, groups []FilterGroup) *AlertQuery {
	if groups == nil {
		groups = []FilterGroup{}
	}
	return &AlertQuery{
		GroupClause: clause,
		Groups:      groups,
		PageNumber:  0,
		PageSize:    defaultPageSize,
		SortKey:     defaultSortKey,
		SortDir:     defaultSortDir,
	}
}

// String renders the query as JSON, mainly for logging.
func (q *AlertQuery) String() string {
	b, err := json.Marshal(q)
	if err != nil {
		return fmt.Sprintf("<invalid query: %v>", err)
	}
	return string(b)
}

// StringField is a filterable text term.
type StringField string

// Eq matches alerts whose term equals value.
func (f StringField) Eq(value string) FilterGroup {
	return singleFilter(string(f), OperatorIs, value)
}

// TimestampField is a filterable timestamp term.
type TimestampField string

// InRange matches timestamps from start to end, both bounds included. Both
// use QueryTimeLayout and are interpreted as UTC.
func (f TimestampField) InRange(start, end string) (FilterGroup, error) {
	startTime, err := time.Parse(QueryTimeLayout, start)
	if err != nil {
		return FilterGroup{}, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	endTime, err := time.Parse(QueryTimeLayout, end)
	if err != nil {
		return FilterGroup{}, fmt.Errorf("invalid end time %q: %w", end, err)
	}
	if endTime.Before(startTime) {
		return FilterGroup{}, fmt.Errorf("end time %q is before start time %q", end, start)
	}

	return FilterGroup{
		FilterClause: ClauseAnd,
		Filters: []Filter{
			{Term: string(f), Operator: OperatorOnOrAfter, Value: formatTimestamp(startTime)},
			{Term: string(f), Operator: OperatorOnOrBefore, Value: formatTimestamp(endTime)},
		},
	}, nil
}

// StateField filters on alert state.
type StateField string

// Eq matches alerts in state. Use ParseAlertState to validate user input first.
func (f StateField) Eq(state string) FilterGroup {
	return singleFilter(string(f), OperatorIs, state)
}

// Filterable alert terms.
const (
	Actor        StringField    = "actor"
	DateObserved TimestampField = "createdAt"
	AlertState   StateField     = "state"
)

// ParseAlertState normalizes a user-supplied state ("open", "In Progress")
// into its API constant.
func ParseAlertState(s string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, state := range AlertStates {
		if normalized == state {
			return state, nil
		}
	}
	return "", fmt.Errorf("invalid alert state %q (must be one of %s)", s, strings.Join(AlertStates, ", "))
}

func singleFilter(term, operator, value string) FilterGroup {
	return FilterGroup{
		FilterClause: ClauseAnd,
		Filters:      []Filter{{Term: term, Operator: operator, Value: value}},
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(queryTimestampLayout)
}
