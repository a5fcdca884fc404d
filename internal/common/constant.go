package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Vote choices accepted by the proposal service.
const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)
