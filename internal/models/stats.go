package models

import "time"

// ScanStats represents aggregated probe counters for one hour
type ScanStats struct {
	Hour           time.Time `json:"hour"`
	Probed         int       `json:"probed"`
	Reachable      int       `json:"reachable"`
	Unreachable    int       `json:"unreachable"`
	TimedOut       int       `json:"timed_out"`
	ProtocolErrors int       `json:"protocol_errors"`
}

// DiscoveryPoint is a data point for the discovery-rate chart
type DiscoveryPoint struct {
	Hour      time.Time `json:"hour"`
	Reachable int       `json:"reachable"`
	Probed    int       `json:"probed"`
}

// ServerRow is a catalog entry as stored, used by the revisit pass
// and the text report
type ServerRow struct {
	Target      Target    `json:"target"`
	VersionName string    `json:"version_name"`
	Online      int       `json:"online"`
	MaxPlayers  int       `json:"max_players"`
	LastStatus  string    `json:"last_status"`
	LastSeen    time.Time `json:"last_seen"`
}
