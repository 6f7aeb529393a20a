// Package token implements the signed claim-set codec used for access and
// refresh tokens, plus the hashing helper used to store refresh tokens
// server-side.
//
// Access tokens are stateless: verification is a signature check and a clock
// comparison, never a store lookup. Refresh tokens reuse the same codec but
// are additionally persisted (as a SHA-256 hash) so they can be revoked.
package token
