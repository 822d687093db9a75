// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import "time"

// DefaultCookieName names the client token that carries the session id.
const DefaultCookieName = "BlogSession"

// CookieAction tells the transport layer what to do with the client token.
type CookieAction int

// Cookie actions.
const (
	CookieNone CookieAction = iota
	CookieSet
	CookieClear
)

// String implements fmt.Stringer.
func (a CookieAction) String() string {
	switch a {
	case CookieSet:
		return "set"
	case CookieClear:
		return "clear"
	default:
		return "none"
	}
}

// CookieConfig describes the client token attributes.
type CookieConfig struct {
	Name string
	Path string
}

// CookieDirective is a transport-neutral instruction for the client token.
// A set directive is always script-inaccessible, encrypted-transport-only
// and same-site strict.
type CookieDirective struct {
	Action    CookieAction
	Name      string
	Path      string
	Value     string
	ExpiresAt time.Time
	HTTPOnly  bool
	Secure    bool
	SameSite  string
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	if c.Path == "" {
		c.Path = "/"
	}
	return c
}

func (c CookieConfig) set(sessionID string, expiresAt time.Time) CookieDirective {
	return CookieDirective{
		Action:    CookieSet,
		Name:      c.Name,
		Path:      c.Path,
		Value:     sessionID,
		ExpiresAt: expiresAt,
		HTTPOnly:  true,
		Secure:    true,
		SameSite:  "Strict",
	}
}

func (c CookieConfig) clear() CookieDirective {
	return CookieDirective{
		Action:   CookieClear,
		Name:     c.Name,
		Path:     c.Path,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	}
}
