// This file contains user resolution against the Graph /users endpoint.
package client

import (
	"context"
	"fmt"
	"net/url"
)

// User is the subset of the Graph user resource the exporter needs.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// ResolveUser looks up a user by principal name (or object id) and returns
// the canonical user record.
func (c *Client) ResolveUser(ctx context.Context, principalName string) (*User, error) {
	if principalName == "" {
		return nil, fmt.Errorf("principal name is required")
	}

	var user User
	path := "/users/" + url.PathEscape(principalName)
	if _, err := c.Get(ctx, path, nil, &user); err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", principalName, err)
	}
	return &user, nil
}
