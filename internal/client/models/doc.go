// Package models defines the client-side domain types of gophchat: chat
// sessions, messages and the identity decoded from the access credential.
package models
