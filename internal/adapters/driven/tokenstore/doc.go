// Package tokenstore provides TokenStore implementations for OAuth 2.0 tokens:
//   - memory: process lifetime only
//   - sqlite: a local database file (modernc.org/sqlite, no cgo)
//   - keychain: the operating system keychain (zalando/go-keyring)
package tokenstore
