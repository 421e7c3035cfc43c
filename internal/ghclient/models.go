// SPDX-License-Identifier: MIT

package ghclient

import (
	"fmt"
	"time"
)

// Kind discriminates the unified entity model.
type Kind string

const (
	KindIssue      Kind = "Issue"
	KindPull       Kind = "PR"
	KindDiscussion Kind = "Discussion"
)

// Ref identifies an issue, pull request, or discussion.
type Ref struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// User is the subset of a GitHub account the bot renders.
type User struct {
	Login     string `json:"login"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
}

// GhostUser stands in for deleted accounts.
func GhostUser() User {
	return User{
		Login:     "ghost",
		HTMLURL:   "https://github.com/ghost",
		AvatarURL: "https://avatars.githubusercontent.com/u/10137",
	}
}

// Reactions is a reaction rollup.
type Reactions struct {
	PlusOne  int `json:"+1"`
	MinusOne int `json:"-1"`
	Laugh    int `json:"laugh"`
	Confused int `json:"confused"`
	Heart    int `json:"heart"`
	Hooray   int `json:"hooray"`
	Eyes     int `json:"eyes"`
	Rocket   int `json:"rocket"`
}

// Entity is the unified issue/PR/discussion model.
type Entity struct {
	Kind      Kind       `json:"kind"`
	Ref       Ref        `json:"ref"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	HTMLURL   string     `json:"html_url"`
	User      User       `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	Reactions *Reactions `json:"reactions,omitempty"`

	// Issue fields
	Closed      bool     `json:"closed"`
	StateReason string   `json:"state_reason,omitempty"`
	Labels      []string `json:"labels,omitempty"`

	// Pull request fields
	Draft        bool `json:"draft,omitempty"`
	Merged       bool `json:"merged,omitempty"`
	Additions    int  `json:"additions,omitempty"`
	Deletions    int  `json:"deletions,omitempty"`
	ChangedFiles int  `json:"changed_files,omitempty"`

	// Discussion fields
	AnsweredBy *User `json:"answered_by,omitempty"`
}

// Comment is a single timeline item: an issue/PR/discussion comment, a PR
// review, a timeline event, or the entity's opening post.
type Comment struct {
	Author    User       `json:"author"`
	Body      string     `json:"body"`
	Reactions *Reactions `json:"reactions,omitempty"`
	Entity    *Entity    `json:"entity"`
	CreatedAt time.Time  `json:"created_at"`
	HTMLURL   string     `json:"html_url"`
	Kind      string     `json:"kind,omitempty"`
	Color     int        `json:"color,omitempty"`
}

// CommentKey identifies a timeline item by its permalink fragment: the
// fragment prefix (e.g. "issuecomment-") plus the numeric ID.
type CommentKey struct {
	Ref    Ref    `json:"ref"`
	Prefix string `json:"prefix"`
	ID     uint64 `json:"id"`
}

func (k CommentKey) String() string {
	return fmt.Sprintf("%s:%s%d", k.Ref, k.Prefix, k.ID)
}

// ContentKey identifies a file at a specific revision.
type ContentKey struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Rev   string `json:"rev"`
	Path  string `json:"path"`
}

func (k ContentKey) String() string {
	return fmt.Sprintf("%s/%s@%s:%s", k.Owner, k.Repo, k.Rev, k.Path)
}
