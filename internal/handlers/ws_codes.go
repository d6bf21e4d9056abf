package handlers

// Custom WebSocket close codes, more specific than the standard set.
const (
	BadSubprotocolError   = 3000 // client connected with an unsupported subprotocol
	InvalidAuthTokenError = 3001 // auth token missing, invalid or expired
	InvalidRoomIDError    = 3002 // target room in the WS URL does not exist
)
