package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UnknownDevice is the sentinel device identity used when the platform
// device-name lookup fails. Conflict detection must keep working even when
// the identity cannot be resolved, so lookups never propagate an error.
const UnknownDevice = "Unknown Device"
