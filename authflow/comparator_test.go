package authflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategies(factors []Factor) []Strategy {
	out := make([]Strategy, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.Strategy)
	}
	return out
}

func TestPasswordPreferredKeepsUnknownOrder(t *testing.T) {
	in := []Factor{
		{Strategy: "unknown1"},
		{Strategy: StrategyPassword},
		{Strategy: "unknown2"},
	}

	got := SortFactors(in, PasswordPreferred)

	assert.Equal(t, []Strategy{StrategyPassword, "unknown1", "unknown2"}, strategies(got))
	assert.Equal(t, Strategy("unknown1"), in[0].Strategy, "input must not be reordered")
}

func TestComparatorsOrderKnownStrategies(t *testing.T) {
	in := []Factor{
		{Strategy: StrategyPhoneCode},
		{Strategy: StrategyPassword},
		{Strategy: StrategyEmailCode},
		{Strategy: StrategyPasskey},
	}

	tests := []struct {
		name string
		cmp  Comparator
		want []Strategy
	}{
		{
			name: "password preferred",
			cmp:  PasswordPreferred,
			want: []Strategy{StrategyPasskey, StrategyPassword, StrategyEmailCode, StrategyPhoneCode},
		},
		{
			name: "otp preferred",
			cmp:  OTPPreferred,
			want: []Strategy{StrategyEmailCode, StrategyPhoneCode, StrategyPasskey, StrategyPassword},
		},
		{
			name: "all strategies",
			cmp:  AllStrategies,
			want: []Strategy{StrategyPasskey, StrategyPassword, StrategyEmailCode, StrategyPhoneCode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strategies(SortFactors(in, tt.cmp)))
		})
	}
}

func TestBackupCodePreferredSecondFactors(t *testing.T) {
	in := []Factor{
		{Strategy: StrategyPhoneCode},
		{Strategy: StrategyTOTP},
		{Strategy: StrategyBackupCode},
	}

	got := SortFactors(in, BackupCodePreferred)

	assert.Equal(t, []Strategy{StrategyBackupCode, StrategyTOTP, StrategyPhoneCode}, strategies(got))
}

func TestSortIsStableForDuplicateStrategies(t *testing.T) {
	in := []Factor{
		{Strategy: StrategyEmailCode, EmailAddressID: "idn_2"},
		{Strategy: StrategyPassword},
		{Strategy: StrategyEmailCode, EmailAddressID: "idn_1"},
	}

	got := SortFactors(in, OTPPreferred)

	require.Len(t, got, 3)
	assert.Equal(t, "idn_2", got[0].EmailAddressID)
	assert.Equal(t, "idn_1", got[1].EmailAddressID)
	assert.Equal(t, StrategyPassword, got[2].Strategy)
}

func TestAlternativeFactorsRemovesCurrent(t *testing.T) {
	current := Factor{Strategy: StrategyEmailCode, EmailAddressID: "idn_1", SafeIdentifier: "a***@example.com"}
	in := []Factor{
		{Strategy: StrategyPhoneCode, PhoneNumberID: "idn_9"},
		current,
		{Strategy: StrategyPassword},
		{Strategy: StrategyEmailCode, EmailAddressID: "idn_2"},
	}

	got := AlternativeFactors(in, current, PasswordPreferred)

	assert.Equal(t, []Strategy{StrategyPassword, StrategyEmailCode, StrategyPhoneCode}, strategies(got))
	assert.Equal(t, "idn_2", got[1].EmailAddressID)
	assert.Len(t, in, 4)
}

func TestIsResetFactor(t *testing.T) {
	assert.True(t, IsResetFactor(Factor{Strategy: StrategyResetPasswordEmailCode}))
	assert.True(t, IsResetFactor(Factor{Strategy: StrategyResetPasswordPhoneCode}))
	assert.False(t, IsResetFactor(Factor{Strategy: StrategyEmailCode}))
	assert.False(t, IsResetFactor(Factor{Strategy: "reset_password_email_code_v2"}))
}

func TestStrategyIsOAuth(t *testing.T) {
	assert.True(t, Strategy("oauth_google").IsOAuth())
	assert.False(t, StrategyPassword.IsOAuth())
}
