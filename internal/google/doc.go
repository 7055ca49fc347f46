// Package google provides OAuth2 authentication and token storage for the
// Google Calendar backend.
//
// Tokens are kept as one JSON file per account under the user cache
// directory. The TokenProvider interface lets tests and other stores stand in
// for the file store.
package google
