// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// fetchEntity resolves a ref against the REST API, upgrading to the pull
// request model when the issue is one, and falling back to the discussions
// GraphQL lookup on 404 (discussions do not exist in the REST issues space).
func (c *Client) fetchEntity(ctx context.Context, ref Ref) (*Entity, error) {
	issue, _, err := c.rest.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	c.count("issues.get", err)
	if err != nil {
		if IsNotFound(err) {
			return c.fetchDiscussion(ctx, ref)
		}
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}

	if issue.PullRequestLinks != nil {
		pr, _, err := c.rest.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
		c.count("pulls.get", err)
		if err != nil {
			return nil, fmt.Errorf("get pull %s: %w", ref, err)
		}
		return pullEntity(ref, pr), nil
	}
	return issueEntity(ref, issue), nil
}

func issueEntity(ref Ref, issue *github.Issue) *Entity {
	e := &Entity{
		Kind:        KindIssue,
		Ref:         ref,
		Title:       issue.GetTitle(),
		Body:        issue.GetBody(),
		HTMLURL:     issue.GetHTMLURL(),
		User:        restUser(issue.User),
		CreatedAt:   issue.GetCreatedAt().Time,
		Closed:      issue.GetState() == "closed",
		StateReason: issue.GetStateReason(),
		Reactions:   restReactions(issue.Reactions),
	}
	for _, l := range issue.Labels {
		e.Labels = append(e.Labels, l.GetName())
	}
	return e
}

func pullEntity(ref Ref, pr *github.PullRequest) *Entity {
	e := &Entity{
		Kind:         KindPull,
		Ref:          ref,
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		HTMLURL:      pr.GetHTMLURL(),
		User:         restUser(pr.User),
		CreatedAt:    pr.GetCreatedAt().Time,
		Closed:       pr.GetState() == "closed",
		Draft:        pr.GetDraft(),
		Merged:       pr.GetMerged(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}
	for _, l := range pr.Labels {
		e.Labels = append(e.Labels, l.GetName())
	}
	return e
}

func restUser(u *github.User) User {
	if u == nil {
		return GhostUser()
	}
	return User{
		Login:     u.GetLogin(),
		HTMLURL:   u.GetHTMLURL(),
		AvatarURL: u.GetAvatarURL(),
	}
}

func restReactions(r *github.Reactions) *Reactions {
	if r == nil || r.GetTotalCount() == 0 {
		return nil
	}
	return &Reactions{
		PlusOne:  r.GetPlusOne(),
		MinusOne: r.GetMinusOne(),
		Laugh:    r.GetLaugh(),
		Confused: r.GetConfused(),
		Heart:    r.GetHeart(),
		Hooray:   r.GetHooray(),
		Eyes:     r.GetEyes(),
		Rocket:   r.GetRocket(),
	}
}
