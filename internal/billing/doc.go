// Package billing integrates Stripe: checkout and portal session
// creation for guild upgrades, and the webhook relay that maps
// subscription lifecycle events onto a guild's tier and status columns.
package billing
