// Package kv provides the session.Storage backends: process memory, a JSON file and Redis.
package kv

import (
	"github.com/trezcool/schoolconnect/core/session"
)

// Backend is a Storage that can be split into isolated namespaces.
type Backend interface {
	session.Storage
	Namespace(ns string) Backend
}

func join(prefix, ns string) string {
	if prefix == "" {
		return ns + ":"
	}
	return prefix + ns + ":"
}
