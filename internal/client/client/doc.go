// Package client is the transport layer between gophchat and the chat
// backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Register,
//     Login, ListChats, StartChat, ChatMessages, SendMessage, UploadDocument
//     and AskQuestion.
//  2. A concrete JSON/HTTP implementation (see HTTPClient) that reads the
//     access token from the credential store on every call and attaches it as
//     a bearer Authorization header.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx responses are returned as
// *ServerError whose message is the response body verbatim; 401 and 403 also
// match ErrUnauthorized via errors.Is.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honour cancellation.
package client
