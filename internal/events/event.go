// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package events is the in-process publish interface of the CMS core.

Domain services publish an [Event] after their store call returns. The [Bus]
fans it out to a fixed set of handlers registered at startup:

  - synchronous handlers (the audit log) run in registration order before
    Publish returns, on a context detached from request cancellation;
  - asynchronous handlers (the webhook dispatcher) only enqueue and return.

Event names are dotted "resource.verb" values parsed by [ParseName].
*/
package events

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Name is a dotted event name such as "post.created".
type Name string

// Events published by the core.
const (
	UserRegistered Name = "user.registered"
	UserLogin      Name = "user.login"
	UserLogout     Name = "user.logout"
	SessionRevoked Name = "session.revoked"
	APIKeyCreated  Name = "apikey.created"
	APIKeyUpdated  Name = "apikey.updated"
	APIKeyDeleted  Name = "apikey.deleted"
	WebhookCreated Name = "webhook.created"
	WebhookUpdated Name = "webhook.updated"
	WebhookDeleted Name = "webhook.deleted"
	WebhookTest    Name = "webhook.test"
	PostCreated    Name = "post.created"
	PostUpdated    Name = "post.updated"
	PostDeleted    Name = "post.deleted"
	PostPublished  Name = "post.published"
	OrderRefunded  Name = "order.refunded"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// ParseName validates s as a "resource.verb" event name.
func ParseName(s string) (Name, error) {
	normalized := strings.TrimSpace(s)
	if !namePattern.MatchString(normalized) {
		return "", fmt.Errorf("events: invalid event name %q", s)
	}
	return Name(normalized), nil
}

// Valid reports whether n is well formed.
func (n Name) Valid() bool {
	return namePattern.MatchString(string(n))
}

// String implements [fmt.Stringer].
func (n Name) String() string {
	return string(n)
}

// Resource is the part before the dot, used as the audit resource type.
func (n Name) Resource() string {
	resource, _, _ := strings.Cut(string(n), ".")
	return resource
}

// Verb is the part after the dot.
func (n Name) Verb() string {
	_, verb, _ := strings.Cut(string(n), ".")
	return verb
}

// pastToAction maps past-tense verbs to audit actions.
var pastToAction = map[string]string{
	"created":    "create",
	"updated":    "update",
	"deleted":    "delete",
	"published":  "publish",
	"refunded":   "refund",
	"registered": "register",
	"revoked":    "revoke",
}

// Action is the audit action derived from the verb: "created" becomes "create",
// verbs without a mapping such as "login" are returned unchanged.
func (n Name) Action() string {
	verb := n.Verb()
	if action, ok := pastToAction[verb]; ok {
		return action
	}
	return verb
}

// Actor identifies who caused an event. Zero value means the system.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}

// merge fills the empty fields of a from b.
func (a Actor) merge(b Actor) Actor {
	if a.UserID == "" {
		a.UserID = b.UserID
	}
	if a.IP == "" {
		a.IP = b.IP
	}
	if a.UserAgent == "" {
		a.UserAgent = b.UserAgent
	}
	return a
}

type actorKey struct{}

// WithActor stores the request's actor so that events published further
// down the call chain are attributed without threading it through services.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by [WithActor], or the zero Actor.
func ActorFrom(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}

// Event is one published occurrence.
type Event struct {
	Name       Name
	ResourceID string
	Payload    map[string]any
	Actor      Actor
	OccurredAt time.Time
}
