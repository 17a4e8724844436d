package common

// AccessTokenHeaderName is the gRPC metadata key carrying a staff access token.
const AccessTokenHeaderName = "access_token"

// BridgeTokenHeaderName is the HTTP header a chat bridge presents when it
// opens its websocket connection.
const BridgeTokenHeaderName = "X-Bridge-Token"
