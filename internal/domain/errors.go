package domain

import "errors"

var (
	ErrGuildNotFound         = errors.New("guild not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrGuildUserNotFound     = errors.New("guild member not found")
	ErrAdminNotFound         = errors.New("admin user not found")
	ErrCommandNotFound       = errors.New("custom command not found")
	ErrCommandExists         = errors.New("custom command already exists")
	ErrReactionRoleNotFound  = errors.New("reaction role not found")
	ErrEmbedNotFound         = errors.New("embed not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrStreamSubNotFound     = errors.New("stream subscription not found")
	ErrAnnouncementNotFound  = errors.New("announcement not found")
	ErrDuplicateWebhookEvent = errors.New("duplicate webhook event")
)
