// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the scanner gateway. These provide
// more specific reasons for closure than the standard codes.
const (
	BadSubprotocolError     = 3000 // Device connected with an unsupported subprotocol.
	InvalidDeviceTokenError = 3001 // Provided device token was invalid or expired.
	InvalidGameIDError      = 3002 // No live game is registered for the authenticated device.
)
