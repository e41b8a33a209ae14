package models

// Storage keys for the persisted session state. Values are plain strings;
// an absent key is a valid state, not an error.
const (
	KeyToken          = "session:token"
	KeyEmail          = "session:email"
	KeyName           = "session:profile:name"
	KeyGender         = "session:profile:gender"
	KeyCountry        = "session:profile:country"
	KeySponsor        = "session:sponsor"         // "1" / "0"
	KeyTimeoutMinutes = "session:timeout-minutes" // decimal string
	KeyLastActivity   = "session:last-activity"   // unix millis, decimal string
)
