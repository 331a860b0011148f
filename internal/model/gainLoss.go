package model

// GainLossMode selects which cost price the gain/loss evaluation uses.
type GainLossMode string

const (
	// ModeExcludingRights ignores every distribution and uses the raw cost price.
	ModeExcludingRights GainLossMode = "excluding_rights"
	// ModeIncludingRights uses the adjusted cost price, which already embeds
	// every cash and stock distribution.
	ModeIncludingRights GainLossMode = "including_rights"
	// ModeCashDividendOnly uses the raw cost price and adds the cash
	// dividends received on top.
	ModeCashDividendOnly GainLossMode = "cash_dividend_only"
)

// Valid reports whether m is a known mode.
func (m GainLossMode) Valid() bool {
	switch m {
	case ModeExcludingRights, ModeIncludingRights, ModeCashDividendOnly:
		return true
	}
	return false
}

// GainLoss is the itemised result of a gain/loss evaluation.
// All monetary values are in the holding's trading currency.
type GainLoss struct {
	HoldingID        string       `json:"holdingId"`
	Mode             GainLossMode `json:"mode"`
	Shares           int64        `json:"shares"`
	CostPrice        float64      `json:"costPrice"`    // Cost price selected by Mode
	CurrentPrice     float64      `json:"currentPrice"` // Market price used for the sell leg
	GrossBuyCost     float64      `json:"grossBuyCost"`
	BuyFee           float64      `json:"buyFee"`
	TotalBuyCost     float64      `json:"totalBuyCost"`
	GrossSellValue   float64      `json:"grossSellValue"`
	SellFee          float64      `json:"sellFee"`
	SellTax          float64      `json:"sellTax"`
	NetSellValue     float64      `json:"netSellValue"`
	CashDividends    float64      `json:"cashDividends"` // Only non-zero for ModeCashDividendOnly
	GainLoss         float64      `json:"gainLoss"`
	GainLossPercent  float64      `json:"gainLossPercent"`
	EffectiveTaxRate float64      `json:"effectiveTaxRate"`
	BrokerageFeeRate float64      `json:"brokerageFeeRate"`
}
