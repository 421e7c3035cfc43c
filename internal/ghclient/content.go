// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// fetchContent retrieves a file's contents at a specific revision.
func (c *Client) fetchContent(ctx context.Context, key ContentKey) (string, error) {
	file, _, _, err := c.rest.Repositories.GetContents(
		ctx, key.Owner, key.Repo, key.Path,
		&github.RepositoryContentGetOptions{Ref: key.Rev},
	)
	c.count("repos.get_contents", err)
	if err != nil {
		return "", fmt.Errorf("get contents %s: %w", key, err)
	}
	if file == nil {
		return "", fmt.Errorf("get contents %s: path is a directory", key)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("get contents %s: decode: %w", key, err)
	}
	return content, nil
}
