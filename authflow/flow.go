package authflow

// Verification is the server state of the latest attempt for one factor.
type Verification struct {
	Status   string   `json:"status"`
	Strategy Strategy `json:"strategy"`
	Attempts int      `json:"attempts,omitempty"`
	ExpireAt int64    `json:"expire_at,omitempty"`
}

// SignIn is a server snapshot of an in-progress or finished sign-in.
type SignIn struct {
	ID                       string        `json:"id"`
	Status                   Status        `json:"status"`
	Identifier               string        `json:"identifier,omitempty"`
	SupportedIdentifiers     []string      `json:"supported_identifiers,omitempty"`
	SupportedFirstFactors    []Factor      `json:"supported_first_factors,omitempty"`
	SupportedSecondFactors   []Factor      `json:"supported_second_factors,omitempty"`
	FirstFactorVerification  *Verification `json:"first_factor_verification,omitempty"`
	SecondFactorVerification *Verification `json:"second_factor_verification,omitempty"`
	CreatedSessionID         string        `json:"created_session_id,omitempty"`
	AbandonAt                int64         `json:"abandon_at,omitempty"`
}

// NextStep reports the step implied by the sign-in status.
func (s *SignIn) NextStep() Step {
	if s == nil {
		return StepCollectIdentifier
	}
	return NextStep(s.Status)
}

// Complete reports whether the server finished this sign-in.
func (s *SignIn) Complete() bool {
	return s != nil && s.Status == StatusComplete
}

// PreferredFirstFactor returns the first factor to present, skipping reset
// factors which are only reachable through the forgot-password branch.
func (s *SignIn) PreferredFirstFactor(cmp Comparator) (Factor, bool) {
	if s == nil {
		return Factor{}, false
	}
	for _, f := range SortFactors(s.SupportedFirstFactors, cmp) {
		if IsResetFactor(f) {
			continue
		}
		return f, true
	}
	return Factor{}, false
}

// PreferredSecondFactor returns the first second factor under cmp.
func (s *SignIn) PreferredSecondFactor(cmp Comparator) (Factor, bool) {
	if s == nil || len(s.SupportedSecondFactors) == 0 {
		return Factor{}, false
	}
	return SortFactors(s.SupportedSecondFactors, cmp)[0], true
}

// ResetFactors returns the forgot-password factors offered as first factors.
func (s *SignIn) ResetFactors() []Factor {
	if s == nil {
		return nil
	}
	var out []Factor
	for _, f := range s.SupportedFirstFactors {
		if IsResetFactor(f) {
			out = append(out, f)
		}
	}
	return out
}

// SignUp is a server snapshot of an in-progress or finished sign-up.
type SignUp struct {
	ID               string                  `json:"id"`
	Status           Status                  `json:"status"`
	RequiredFields   []string                `json:"required_fields,omitempty"`
	OptionalFields   []string                `json:"optional_fields,omitempty"`
	MissingFields    []string                `json:"missing_fields,omitempty"`
	UnverifiedFields []string                `json:"unverified_fields,omitempty"`
	Verifications    map[string]Verification `json:"verifications,omitempty"`
	EmailAddress     string                  `json:"email_address,omitempty"`
	PhoneNumber      string                  `json:"phone_number,omitempty"`
	Username         string                  `json:"username,omitempty"`
	CreatedSessionID string                  `json:"created_session_id,omitempty"`
	CreatedUserID    string                  `json:"created_user_id,omitempty"`
	AbandonAt        int64                   `json:"abandon_at,omitempty"`
}

// NextStep reports the step implied by the sign-up status.
func (s *SignUp) NextStep() Step {
	if s == nil {
		return StepCollectIdentifier
	}
	if s.Status == StatusMissingRequirements && len(s.MissingFields) == 0 && len(s.UnverifiedFields) > 0 {
		return StepFirstFactor
	}
	return NextStep(s.Status)
}

// Complete reports whether the server finished this sign-up.
func (s *SignUp) Complete() bool {
	return s != nil && s.Status == StatusComplete
}
