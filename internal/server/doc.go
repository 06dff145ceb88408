// Package server wires the echo HTTP surface: Discord OAuth + JWT auth,
// guild configuration CRUD, Discord REST proxying, streamer tracking,
// platform webhooks, Stripe billing, and the admin dashboard routes.
package server
