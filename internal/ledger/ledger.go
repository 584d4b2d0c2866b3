// Package ledger holds the money helpers shared by every action. Gold is a
// fixed-point decimal with two fractional digits; floats are never used.
package ledger

import "github.com/shopspring/decimal"

// Cents rounds a gold amount to cent precision using round-half-even.
// Every stored amount and every computed delta passes through here before
// persistence or comparison.
func Cents(v decimal.Decimal) decimal.Decimal {
	return v.RoundBank(2)
}

// Apply returns the new balance after a delta: Cents(balance + delta).
// The log entry written alongside must snapshot exactly this value.
func Apply(balance, delta decimal.Decimal) decimal.Decimal {
	return Cents(balance.Add(delta))
}

// WouldOverdraw reports whether applying the delta leaves the balance
// negative at cent precision.
func WouldOverdraw(balance, delta decimal.Decimal) bool {
	return Apply(balance, delta).Sign() < 0
}
