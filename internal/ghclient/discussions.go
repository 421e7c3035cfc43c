// SPDX-License-Identifier: MIT

package ghclient

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/shurcooL/githubv4"
)

// gqlActor mirrors the Actor fields the bot renders.
type gqlActor struct {
	Login     githubv4.String
	URL       githubv4.URI
	AvatarURL githubv4.URI `graphql:"avatarUrl"`
}

func (a gqlActor) user() User {
	if a.Login == "" {
		return GhostUser()
	}
	return User{
		Login:     string(a.Login),
		HTMLURL:   a.URL.String(),
		AvatarURL: a.AvatarURL.String(),
	}
}

type gqlDiscussion struct {
	Number      githubv4.Int
	Title       githubv4.String
	Body        githubv4.String
	URL         githubv4.URI
	CreatedAt   githubv4.DateTime
	Closed      githubv4.Boolean
	StateReason *githubv4.String `graphql:"stateReason"`
	Author      gqlActor
	Answer      *struct {
		Author gqlActor
	}
}

func (d gqlDiscussion) entity(ref Ref) *Entity {
	e := &Entity{
		Kind:      KindDiscussion,
		Ref:       ref,
		Title:     string(d.Title),
		Body:      string(d.Body),
		HTMLURL:   d.URL.String(),
		User:      d.Author.user(),
		CreatedAt: d.CreatedAt.Time,
		Closed:    bool(d.Closed),
	}
	if d.StateReason != nil {
		e.StateReason = string(*d.StateReason)
	}
	if d.Answer != nil {
		u := d.Answer.Author.user()
		e.AnsweredBy = &u
	}
	return e
}

// fetchDiscussion looks a discussion up by number. Discussions live only in
// the GraphQL API.
func (c *Client) fetchDiscussion(ctx context.Context, ref Ref) (*Entity, error) {
	var q struct {
		Repository struct {
			Discussion gqlDiscussion `graphql:"discussion(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(ref.Owner),
		"name":   githubv4.String(ref.Repo),
		"number": githubv4.Int(ref.Number),
	}
	err := c.graphql.Query(ctx, &q, vars)
	c.count("graphql.discussion", err)
	if err != nil {
		return nil, fmt.Errorf("get discussion %s: %w", ref, err)
	}
	return q.Repository.Discussion.entity(ref), nil
}

// discussionCommentNodeID reconstructs the GraphQL node ID from the numeric
// comment ID found in permalinks: "DC_" plus the base64 of a msgpack-encoded
// [0, 0, id] triple.
func discussionCommentNodeID(id uint64) string {
	packed := []byte{0x93, 0x00, 0x00}
	switch {
	case id < 1<<7:
		packed = append(packed, byte(id))
	case id < 1<<8:
		packed = append(packed, 0xcc, byte(id))
	case id < 1<<16:
		packed = append(packed, 0xcd)
		packed = binary.BigEndian.AppendUint16(packed, uint16(id))
	case id < 1<<32:
		packed = append(packed, 0xce)
		packed = binary.BigEndian.AppendUint32(packed, uint32(id))
	default:
		packed = append(packed, 0xcf)
		packed = binary.BigEndian.AppendUint64(packed, id)
	}
	return "DC_" + base64.URLEncoding.EncodeToString(packed)
}

// discussionComment fetches a discussion comment and its parent discussion in
// one query. Returns the comment shell without Kind or Color set.
func (c *Client) discussionComment(ctx context.Context, ref Ref, id uint64) (*Comment, error) {
	var q struct {
		Node struct {
			Comment struct {
				Body       githubv4.String
				URL        githubv4.URI
				CreatedAt  githubv4.DateTime
				Author     gqlActor
				Discussion gqlDiscussion
			} `graphql:"... on DiscussionComment"`
		} `graphql:"node(id: $id)"`
	}
	vars := map[string]any{"id": githubv4.ID(discussionCommentNodeID(id))}
	err := c.graphql.Query(ctx, &q, vars)
	c.count("graphql.discussion_comment", err)
	if err != nil {
		return nil, fmt.Errorf("get discussion comment %d on %s: %w", id, ref, err)
	}
	node := q.Node.Comment
	return &Comment{
		Author:    node.Author.user(),
		Body:      string(node.Body),
		Entity:    node.Discussion.entity(ref),
		CreatedAt: node.CreatedAt.Time,
		HTMLURL:   node.URL.String(),
	}, nil
}
