package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	e := s.echo

	// Operational endpoints
	e.GET("/health/live", s.handleLiveness)
	e.GET("/health/ready", s.handleReadiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/bot/invite", s.handleBotInvite)

	// Discord OAuth login flow
	auth := e.Group("/auth")
	auth.GET("/login", s.handleLogin)
	auth.GET("/callback", s.handleCallback)
	auth.GET("/me", s.handleMe, s.requireAuth)

	api := e.Group("/api", s.requireAuth)

	api.GET("/endpoints", s.handleEndpoints)
	api.GET("/stats/global", s.handleGlobalStats)

	api.GET("/user/guilds", s.handleUserGuilds)
	api.GET("/user/:userID", s.handleUserProfile)
	api.GET("/user/:userID/guilds", s.handleUserMemberships)
	api.GET("/user/:userID/rank/:metric", s.handleUserRank)
	api.GET("/user/:userID/ai-images", s.handleUserAIImages)

	api.GET("/guilds/search-portals", s.handleSearchPortals)

	// Guild-scoped routes: everything under :id requires dashboard access.
	guild := api.Group("/guilds/:id", s.requireGuildAccess)
	guild.GET("/permissions", s.handleGuildPermissions)
	guild.GET("/stats", s.handleGuildStats)
	guild.GET("/config", s.handleGetConfig)
	guild.PUT("/config", s.handleUpdateConfig)
	guild.GET("/leaderboard", s.handleGuildLeaderboard)
	guild.GET("/user/:userID/stats", s.handleGuildUserStats)
	guild.GET("/portal-config", s.handleGetPortalConfig)
	guild.PATCH("/portal-config", s.handleUpdatePortalConfig)
	guild.GET("/ai-images", s.handleGuildAIImages)
	guild.GET("/ai-images/stats", s.handleAIImageStats)

	guild.GET("/roles", s.handleGuildRoles)
	guild.GET("/channels", s.handleGuildChannels)
	guild.GET("/emojis", s.handleGuildEmojis)

	guild.GET("/commands", s.handleListCommands)
	guild.POST("/commands", s.handleCreateCommand)
	guild.PUT("/commands/:commandID", s.handleUpdateCommand)
	guild.DELETE("/commands/:commandID", s.handleDeleteCommand)
	guild.PATCH("/commands/:commandID/enabled", s.handleToggleCommand)
	guild.GET("/commands/stats", s.handleCommandStats)

	guild.GET("/reaction-roles", s.handleListReactionRoles)
	guild.POST("/reaction-roles", s.handleCreateReactionRole)
	guild.PUT("/reaction-roles/:rrID", s.handleUpdateReactionRole)
	guild.DELETE("/reaction-roles/:rrID", s.handleDeleteReactionRole)
	guild.POST("/reaction-roles/:rrID/send", s.handleSendReactionRole)
	guild.POST("/reaction-roles/:rrID/duplicate", s.handleDuplicateReactionRole)
	guild.GET("/reaction-roles/stats", s.handleReactionRoleStats)

	guild.GET("/embeds", s.handleListEmbeds)
	guild.POST("/embeds", s.handleCreateEmbed)
	guild.PUT("/embeds/:embedID", s.handleUpdateEmbed)
	guild.DELETE("/embeds/:embedID", s.handleDeleteEmbed)
	guild.POST("/embeds/:embedID/send", s.handleSendEmbed)
	guild.POST("/embeds/:embedID/duplicate", s.handleDuplicateEmbed)
	guild.GET("/embeds/stats", s.handleEmbedStats)

	if s.deps.TwitchManager != nil {
		guild.GET("/streamers/twitch/validate", s.handleTwitchValidate)
		guild.POST("/streamers/twitch", s.handleTwitchTrack)
		guild.DELETE("/streamers/twitch/:login", s.handleTwitchUntrack)
	}
	if s.deps.KickManager != nil {
		api.GET("/kick/channel/:slug", s.handleKickChannel)
		guild.GET("/streamers/kick/validate", s.handleKickValidate)
		guild.POST("/streamers/kick", s.handleKickTrack)
		guild.DELETE("/streamers/kick/:slug", s.handleKickUntrack)
	}
	if s.deps.YouTubeManager != nil {
		api.POST("/youtube/check-live", s.handleYouTubeCheckLive)
		guild.GET("/streamers/youtube/validate", s.handleYouTubeValidate)
		guild.POST("/streamers/youtube", s.handleYouTubeTrack)
		guild.DELETE("/streamers/youtube/:channel", s.handleYouTubeUntrack)
	}
	guild.GET("/streamers", s.handleListStreamers)

	if s.deps.Billing != nil {
		guild.POST("/subscription/checkout", s.handleCheckout)
		guild.POST("/subscription/cancel", s.handleCancelSubscription)
		guild.POST("/subscription/portal", s.handlePortal)
		guild.GET("/subscription", s.handleSubscriptionStatus)
	}

	api.GET("/leaderboard", s.handleGlobalLeaderboard)

	// Admin dashboard
	admin := api.Group("/admin", s.requireAdmin)
	admin.GET("/check", s.handleAdminCheck)
	admin.GET("/overview", s.handleAdminOverview)
	admin.GET("/guilds", s.handleAdminGuilds)
	admin.GET("/guilds/:guildID", s.handleAdminGuildDetail)
	admin.GET("/admins", s.handleAdminList)
	admin.POST("/admins", s.handleAdminAdd)
	admin.DELETE("/admins/:discordID", s.handleAdminRemove)
	admin.GET("/audit", s.handleAdminAudit)
	admin.GET("/settings/:category", s.handleAdminGetSettings)
	admin.PUT("/settings/:category", s.handleAdminSetSetting)

	// Platform webhooks carry their own signatures instead of bearer auth.
	webhooks := e.Group("/api/webhooks", webhookRateLimiter())
	if s.deps.TwitchWebhook != nil {
		webhooks.POST("/twitch", s.deps.TwitchWebhook.Handle)
	}
	if s.deps.KickWebhook != nil {
		webhooks.POST("/kick", s.deps.KickWebhook.Handle)
	}
	if s.deps.YouTubeWebhook != nil {
		webhooks.GET("/youtube", s.deps.YouTubeWebhook.HandleChallenge)
		webhooks.POST("/youtube", s.deps.YouTubeWebhook.HandleNotification)
	}
	if s.deps.Billing != nil {
		e.POST("/api/stripe/webhook", s.deps.Billing.HandleWebhook, webhookRateLimiter())
	}
}
