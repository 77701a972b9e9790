// Package models holds the gorm models of the relational identity store.
package models
