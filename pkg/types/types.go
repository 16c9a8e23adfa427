package types

// GuildSnapshot is the authoritative state of one guild at a point in time:
// the values a guild's gauges are initialised from on join and on recalibration.
type GuildSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Online   int    `json:"online"`
	Channels int    `json:"channels"`
	Threads  int    `json:"threads"`
}
