package authflow

import "strings"

// Strategy names a verification method offered by the server.
type Strategy string

const (
	StrategyPassword                Strategy = "password"
	StrategyEmailCode               Strategy = "email_code"
	StrategyEmailLink               Strategy = "email_link"
	StrategyPhoneCode               Strategy = "phone_code"
	StrategyPasskey                 Strategy = "passkey"
	StrategyTOTP                    Strategy = "totp"
	StrategyBackupCode              Strategy = "backup_code"
	StrategyResetPasswordEmailCode  Strategy = "reset_password_email_code"
	StrategyResetPasswordPhoneCode  Strategy = "reset_password_phone_code"
	StrategyTicket                  Strategy = "ticket"
	StrategyEnterpriseSSO           Strategy = "enterprise_sso"
	StrategyWeb3MetamaskSignature   Strategy = "web3_metamask_signature"
	StrategyWeb3CoinbaseSignature   Strategy = "web3_coinbase_wallet_signature"
	StrategyGoogleOneTap            Strategy = "google_one_tap"
)

const oauthStrategyPrefix = "oauth_"

// IsOAuth reports whether s is one of the oauth_<provider> strategies.
func (s Strategy) IsOAuth() bool {
	return strings.HasPrefix(string(s), oauthStrategyPrefix)
}

// Factor is one verification method offered for the current step.
type Factor struct {
	Strategy       Strategy `json:"strategy"`
	EmailAddressID string   `json:"email_address_id,omitempty"`
	PhoneNumberID  string   `json:"phone_number_id,omitempty"`
	Web3WalletID   string   `json:"web3_wallet_id,omitempty"`
	SafeIdentifier string   `json:"safe_identifier,omitempty"`
	Primary        bool     `json:"primary,omitempty"`
	Default        bool     `json:"default,omitempty"`
}

// IsResetFactor reports whether f starts a forgot-password flow.
func IsResetFactor(f Factor) bool {
	return f.Strategy == StrategyResetPasswordEmailCode || f.Strategy == StrategyResetPasswordPhoneCode
}

func sameFactor(a, b Factor) bool {
	return a.Strategy == b.Strategy &&
		a.EmailAddressID == b.EmailAddressID &&
		a.PhoneNumberID == b.PhoneNumberID &&
		a.Web3WalletID == b.Web3WalletID &&
		a.SafeIdentifier == b.SafeIdentifier
}
