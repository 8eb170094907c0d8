package domain

// TOTPSetupResponse carries the provisioning material returned from TOTP
// setup. The secret is shown once for manual entry; QRCode is a PNG data URI
// of the otpauth:// URI for scanning.
type TOTPSetupResponse struct {
	Secret  string
	QRCode  string
	Issuer  string
	Account string
}
