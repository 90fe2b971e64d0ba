// Package client contains the client side of the vidtube auth API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): Login,
//     Refresh, Logout, ChangePassword and CurrentUser.
//  2. A gRPC implementation (see GRPCClient) that speaks the JSON codec,
//     injects the access token via an interceptor, transparently refreshes
//     an expired access token once and maps gRPC status codes to sentinel
//     errors.
//  3. A file-backed session store (FileSessionStore) that keeps the token
//     pair between CLI invocations in a 0600 JSON file.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrInvalidInput, ErrThrottled,
// ErrNoSession.
package client
