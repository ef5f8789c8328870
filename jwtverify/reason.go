package jwtverify

import "errors"

var reasons = []struct {
	err  error
	kind string
}{
	{ErrCertificateUnavailable, "certificate_unavailable"},
	{ErrInvalidKey, "invalid_key"},
	{ErrMalformedToken, "malformed"},
	{ErrInvalidSignature, "bad_signature"},
	{ErrTokenExpired, "expired"},
	{ErrTokenNotYetValid, "not_yet_valid"},
	{ErrInvalidAudience, "bad_audience"},
	{ErrClaimMissing, "claim_missing"},
	{ErrClaimNotString, "claim_not_string"},
}

// Reason returns a short, stable label for a verification or claim error,
// suitable for log fields and the audit trail. Unknown errors map to
// "invalid".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.kind
		}
	}
	return "invalid"
}
