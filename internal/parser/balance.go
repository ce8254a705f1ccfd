package parser

import (
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// runningBalance threads the last known account balance through one Parse
// call. It starts at zero unless a balance-forward line seeds it.
type runningBalance struct {
	last decimal.Decimal
}

func (b *runningBalance) seed(v decimal.Decimal) {
	b.last = v
}

// direction classifies a movement that left the account at v. It must be
// called before advance for the same record.
func (b *runningBalance) direction(v decimal.Decimal) string {
	if v.LessThan(b.last) {
		return models.TypeDebit
	}
	return models.TypeCredit
}

func (b *runningBalance) advance(v decimal.Decimal) {
	b.last = v
}
