// Package password provides the default argon2id implementation of the
// realmauth PasswordHasher interface.
//
// Hashes use the PHC string format so parameters travel with each hash
// and verification never depends on current engine configuration.
package password
