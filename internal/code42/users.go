package code42

import (
	"context"
	"net/http"
	"net/url"
)

// User is a Code42 user record.
type User struct {
	UserID    int64  `json:"userId"`
	UserUID   string `json:"userUid"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	OrgUID    string `json:"orgUid,omitempty"`
	Status    string `json:"status,omitempty"`
	Active    bool   `json:"active"`
}

// UserList is the result of a user search.
type UserList struct {
	TotalCount int    `json:"totalCount"`
	Users      []User `json:"users"`
}

// UsersService wraps the /api/User endpoints.
type UsersService struct {
	client *Client
}

// GetCurrent returns the authenticated user.
func (s *UsersService) GetCurrent(ctx context.Context) (*User, error) {
	var resp struct {
		Data User `json:"data"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/User/my", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetByUsername returns the users matching username exactly.
// An unknown username yields an empty list, not an error.
func (s *UsersService) GetByUsername(ctx context.Context, username string) (*UserList, error) {
	var resp struct {
		Data UserList `json:"data"`
	}
	query := url.Values{"username": []string{username}}
	if err := s.client.do(ctx, http.MethodGet, "/api/User", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
