package service

import "github.com/asistanapp/panel-service/internal/realtime"

// Broadcaster pushes frames to connected panel sockets. Satisfied by
// *realtime.Hub; the worker binary runs without one.
type Broadcaster interface {
	SendToAgent(tenantID, agentID string, frame realtime.Frame)
	BroadcastToTenant(tenantID string, frame realtime.Frame)
	BroadcastToChannel(tenantID, channelID, skipAgentID string, frame realtime.Frame)
}
