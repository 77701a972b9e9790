// Package uniuri generates random strings from crypto/rand without modulo
// bias. It backs the passwords generated for registrations without one.
package uniuri
