package authflow

import "slices"

// Comparator orders factors by a fixed strategy preference list.
type Comparator struct {
	name  string
	order map[Strategy]int
}

func newComparator(name string, preference ...Strategy) Comparator {
	order := make(map[Strategy]int, len(preference))
	for i, s := range preference {
		order[s] = i
	}
	return Comparator{name: name, order: order}
}

var (
	// PasswordPreferred puts passkey and password ahead of one-time codes.
	PasswordPreferred = newComparator("password_preferred",
		StrategyPasskey,
		StrategyPassword,
		StrategyEmailLink,
		StrategyEmailCode,
		StrategyPhoneCode,
	)
	// OTPPreferred puts email and phone codes ahead of passwords.
	OTPPreferred = newComparator("otp_preferred",
		StrategyEmailLink,
		StrategyEmailCode,
		StrategyPhoneCode,
		StrategyPasskey,
		StrategyPassword,
	)
	// BackupCodePreferred is used for second factors when the user asked for the
	// backup code path.
	BackupCodePreferred = newComparator("backup_code_preferred",
		StrategyBackupCode,
		StrategyTOTP,
		StrategyPhoneCode,
		StrategyEmailCode,
	)
	// AllStrategies orders the full button list shown on alternative-method screens.
	AllStrategies = newComparator("all_strategies",
		StrategyTicket,
		StrategyPasskey,
		StrategyPassword,
		StrategyEmailLink,
		StrategyEmailCode,
		StrategyPhoneCode,
		StrategyTOTP,
		StrategyBackupCode,
	)
)

func (c Comparator) Name() string { return c.name }

func (c Comparator) index(s Strategy) int {
	if i, ok := c.order[s]; ok {
		return i
	}
	return len(c.order)
}

// Compare returns a negative number when a sorts before b, zero for ties.
func (c Comparator) Compare(a, b Factor) int {
	return c.index(a.Strategy) - c.index(b.Strategy)
}

// SortFactors returns a stably sorted copy of factors.
func SortFactors(factors []Factor, cmp Comparator) []Factor {
	out := slices.Clone(factors)
	slices.SortStableFunc(out, cmp.Compare)
	return out
}

// AlternativeFactors returns the sorted factors without current.
func AlternativeFactors(factors []Factor, current Factor, cmp Comparator) []Factor {
	sorted := SortFactors(factors, cmp)
	out := sorted[:0]
	for _, f := range sorted {
		if sameFactor(f, current) {
			continue
		}
		out = append(out, f)
	}
	return out
}
