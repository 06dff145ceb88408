// Package crypto encrypts Discord OAuth access tokens before they are
// cached in Redis. Without TOKEN_ENCRYPTION_KEY set the noop service is
// used and tokens are stored in the clear.
package crypto
