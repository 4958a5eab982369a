// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package memstore provides in-memory implementations of every repository.

It backs STORAGE_DRIVER=memory and the service and end-to-end tests. Each
repository guards its maps with its own mutex and hands out copies, so callers
never share state with the store.
*/
package memstore

// Store groups one instance of every repository.
type Store struct {
	Users    *Users
	Sessions *Sessions
	APIKeys  *APIKeys
	Audit    *AuditLog
	Webhooks *Webhooks
	Posts    *Posts
}

// New returns an empty [Store].
func New() *Store {
	users := NewUsers()
	return &Store{
		Users:    users,
		Sessions: NewSessions(),
		APIKeys:  NewAPIKeys(),
		Audit:    NewAuditLog(users),
		Webhooks: NewWebhooks(),
		Posts:    NewPosts(),
	}
}
