// Package balance derives the pairwise net-balance ledger from the
// expense and people collections.
//
// Sign convention, defined here and nowhere else: a positive value at
// Sheet[x][y] means x owes y. Consumers that want a "you are owed"
// framing must go through OwedBy rather than re-deriving sign locally.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/fairtab/fairtab/internal/models"
)

// Sheet is the pairwise ledger: Sheet[a][b] is the net amount a owes b.
// Antisymmetric by construction: Sheet[a][b] == -Sheet[b][a].
type Sheet map[string]map[string]decimal.Decimal

// Compute builds the pairwise ledger from the full collections.
//
// Every ordered pair of known emails starts at zero. For each expense
// the per-head share is amount / |split| (split deduplicated first);
// each split member other than the payer accrues the share against the
// payer, and the payer accrues the negated share back. Expenses with an
// empty split are skipped entirely, never divided. Emails referenced by
// an expense but missing from people are added on demand, so dangling
// references degrade gracefully instead of failing.
func Compute(people []models.Person, expenses []models.Expense) Sheet {
	sheet := Sheet{}
	for _, p := range people {
		for _, q := range people {
			if p.Email != q.Email {
				sheet.add(p.Email, q.Email, decimal.Zero)
			}
		}
	}

	for _, e := range expenses {
		split := dedupe(e.SplitAmong)
		if len(split) == 0 {
			continue
		}
		share := decimal.NewFromFloat(e.Amount).Div(decimal.NewFromInt(int64(len(split))))

		for _, member := range split {
			if member == e.PaidBy {
				continue
			}
			sheet.add(member, e.PaidBy, share)
			sheet.add(e.PaidBy, member, share.Neg())
		}
	}
	return sheet
}

// OwedBy returns the net amount me owes other: positive when me owes,
// negative when me is owed. This is the single named transformation all
// consumers use.
func (s Sheet) OwedBy(me, other string) decimal.Decimal {
	row, ok := s[me]
	if !ok {
		return decimal.Zero
	}
	return row[other]
}

// Summary is the current actor's aggregate view of the sheet.
type Summary struct {
	// YouOwe is the total the actor owes across all counterparties.
	YouOwe decimal.Decimal
	// OwedToYou is the total owed to the actor.
	OwedToYou decimal.Decimal
	// Net is OwedToYou - YouOwe.
	Net decimal.Decimal
}

// SummaryFor aggregates one person's row into owed/owing totals.
func (s Sheet) SummaryFor(me string) Summary {
	sum := Summary{YouOwe: decimal.Zero, OwedToYou: decimal.Zero}
	for _, amount := range s[me] {
		switch {
		case amount.IsPositive():
			sum.YouOwe = sum.YouOwe.Add(amount)
		case amount.IsNegative():
			sum.OwedToYou = sum.OwedToYou.Add(amount.Neg())
		}
	}
	sum.Net = sum.OwedToYou.Sub(sum.YouOwe)
	return sum
}

func (s Sheet) add(from, to string, amount decimal.Decimal) {
	row, ok := s[from]
	if !ok {
		row = map[string]decimal.Decimal{}
		s[from] = row
	}
	row[to] = row[to].Add(amount)
}

// dedupe returns the unique emails in order of first appearance,
// dropping empties.
func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	var out []string
	for _, e := range emails {
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
