// Package main is the entry point of idsync, an identity and group
// reconciliation service in front of a Keycloak realm. It serves sign-in,
// registration, account and group APIs over fiber and keeps a local copy of
// every authenticated principal in a gorm or key-value store.
package main
