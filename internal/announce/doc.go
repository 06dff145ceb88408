// Package announce fans stream lifecycle events out to Discord. Each
// platform's webhook handler resolves its event into a StreamInfo and
// hands it here; the announcer applies every tracking guild's settings,
// posts the live message, and edits it in place when the stream ends.
package announce
