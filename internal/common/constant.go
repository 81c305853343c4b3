package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the peer
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ProtocolVersionHeaderName carries the replication protocol version.
const ProtocolVersionHeaderName = "x-protocol-version"

// ProtocolVersion is the replication protocol version spoken by this build.
const ProtocolVersion = "1"
