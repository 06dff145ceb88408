// Package kick integrates with the Kick public API and its event
// webhooks. Kick delivers a single livestream.status.updated event for
// both online and offline transitions, and signs payloads with its RSA
// key rather than a shared HMAC secret.
package kick
