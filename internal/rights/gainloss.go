package rights

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Default cost rates in percent.
const (
	DefaultBrokerageFeeRate   = 0.1425
	DefaultTransactionTaxRate = 0.3

	// BondETFTaxRate applies to plain bond ETFs, which are exempt.
	BondETFTaxRate = 0.0
	// LeveragedBondETFTaxRate applies to leveraged and inverse bond ETFs.
	LeveragedBondETFTaxRate = 0.1
)

// MinimumFee is the brokerage fee floor charged on every trade leg.
var MinimumFee = decimal.NewFromInt(20)

var (
	hundred = decimal.NewFromInt(100)

	bondETFPattern = regexp.MustCompile(`^00\d{3}B$`)

	// Name markers of leveraged and inverse funds.
	fundMarkers = []string{"2X", "LEVERAGED", "槓桿", "INVERSE", "SHORT", "反向"}

	knownLeveragedBondETFs = map[string]struct{}{
		"00680L": {}, "00681L": {}, "00682L": {},
		"00683R": {}, "00684R": {}, "00685R": {},
	}
)

// DefaultTaxRate returns the transaction tax rate (percent) for a symbol.
// Bond ETFs (00xxxB) are exempt, leveraged or inverse bond ETFs pay 0.1%
// and everything else pays the standard 0.3%. The security name, when
// known, helps spot leveraged and inverse funds.
func DefaultTaxRate(symbol, name string) float64 {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := knownLeveragedBondETFs[sym]; ok {
		return LeveragedBondETFTaxRate
	}
	if !bondETFPattern.MatchString(sym) {
		return DefaultTransactionTaxRate
	}

	upperName := strings.ToUpper(name)
	for _, marker := range fundMarkers {
		if strings.Contains(upperName, marker) {
			return LeveragedBondETFTaxRate
		}
	}
	return BondETFTaxRate
}

// Evaluate returns the estimated gain/loss of selling the holding at its
// current price, net of brokerage fees on both legs and transaction tax on
// the sell leg.
func Evaluate(holding model.Holding, mode model.GainLossMode, brokerageFeeRate, transactionTaxRate float64) float64 {
	return EvaluateBreakdown(holding, mode, brokerageFeeRate, transactionTaxRate).GainLoss
}

// EvaluateBreakdown computes the gain/loss of a holding together with every
// intermediate amount.
//
// The cost price depends on mode: excluding_rights and cash_dividend_only
// use the raw CostPrice, including_rights uses the adjusted cost price when
// one has been computed. cash_dividend_only adds the total cash dividends
// received on top of the result. Unknown modes evaluate as including_rights.
//
// Fees are max(20, round(amount × feeRate / 100)). The holding's own
// TransactionTaxRate overrides transactionTaxRate. Amounts are rounded half
// up to whole currency units.
func EvaluateBreakdown(holding model.Holding, mode model.GainLossMode, brokerageFeeRate, transactionTaxRate float64) model.GainLoss {
	costPrice := holding.EffectiveCostPrice()
	if mode == model.ModeExcludingRights || mode == model.ModeCashDividendOnly {
		costPrice = holding.CostPrice
	}

	taxRate := transactionTaxRate
	if holding.TransactionTaxRate != nil {
		taxRate = *holding.TransactionTaxRate
	}

	shares := decimal.NewFromInt(holding.Shares)
	feeRate := decimal.NewFromFloat(brokerageFeeRate)

	grossBuy := shares.Mul(decimal.NewFromFloat(costPrice))
	buyFee := fee(grossBuy, feeRate)
	totalBuy := grossBuy.Add(buyFee)

	grossSell := shares.Mul(decimal.NewFromFloat(holding.CurrentPrice))
	sellFee := fee(grossSell, feeRate)
	sellTax := grossSell.Mul(decimal.NewFromFloat(taxRate)).Div(hundred).Round(0)
	netSell := grossSell.Sub(sellFee).Sub(sellTax)

	gainLoss := netSell.Sub(totalBuy)

	var cashDividends decimal.Decimal
	if mode == model.ModeCashDividendOnly {
		for _, e := range holding.DividendRecords {
			cashDividends = cashDividends.Add(decimal.NewFromFloat(e.TotalCashDividend))
		}
		gainLoss = gainLoss.Add(cashDividends)
	}

	var percent decimal.Decimal
	if totalBuy.IsPositive() {
		percent = gainLoss.Div(totalBuy).Mul(hundred).Round(2)
	}

	return model.GainLoss{
		HoldingID:        holding.ID,
		Mode:             mode,
		Shares:           holding.Shares,
		CostPrice:        costPrice,
		CurrentPrice:     holding.CurrentPrice,
		GrossBuyCost:     grossBuy.InexactFloat64(),
		BuyFee:           buyFee.InexactFloat64(),
		TotalBuyCost:     totalBuy.InexactFloat64(),
		GrossSellValue:   grossSell.InexactFloat64(),
		SellFee:          sellFee.InexactFloat64(),
		SellTax:          sellTax.InexactFloat64(),
		NetSellValue:     netSell.InexactFloat64(),
		CashDividends:    cashDividends.InexactFloat64(),
		GainLoss:         gainLoss.InexactFloat64(),
		GainLossPercent:  percent.InexactFloat64(),
		EffectiveTaxRate: taxRate,
		BrokerageFeeRate: brokerageFeeRate,
	}
}

func fee(amount, rate decimal.Decimal) decimal.Decimal {
	return decimal.Max(MinimumFee, amount.Mul(rate).Div(hundred).Round(0))
}
