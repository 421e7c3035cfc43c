// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// ErrOwnerNotFound means no repository with the given name turned up in the
// search results.
var ErrOwnerNotFound = errors.New("repo owner not found")

// fetchOwner guesses the owner of a bare repo name by picking the most
// starred repository with an exactly matching name.
func (c *Client) fetchOwner(ctx context.Context, name string) (string, error) {
	result, _, err := c.rest.Search.Repositories(ctx, name, &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 20},
	})
	c.count("search.repos", err)
	if err != nil {
		return "", fmt.Errorf("search repos %q: %w", name, err)
	}
	for _, r := range result.Repositories {
		if r.GetName() == name && r.Owner != nil {
			return r.Owner.GetLogin(), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrOwnerNotFound, name)
}
