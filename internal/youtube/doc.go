// Package youtube integrates with YouTube via WebSub push notifications
// and the Data API. WebSub delivers Atom feed entries when a channel
// publishes or updates a video; the Data API tells us whether the video
// is a live broadcast and whether it has ended.
package youtube
