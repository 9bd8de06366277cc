package model

import (
	"github.com/shopspring/decimal"

	"moneyScope/internal/weighted"
)

// Bar is the staking bar aggregate; XMoney tracks minted (deposited) and
// burned (withdrawn) receipt tokens with their destroyed age.
type Bar struct {
	ID                string            `json:"id"`
	Decimals          uint8             `json:"decimals"`
	Name              string            `json:"name"`
	Symbol            string            `json:"symbol"`
	Money             string            `json:"money"`
	TotalSupply       decimal.Decimal   `json:"totalSupply"`
	Ratio             decimal.Decimal   `json:"ratio"`
	MoneyStaked       decimal.Decimal   `json:"moneyStaked"`
	MoneyStakedUSD    decimal.Decimal   `json:"moneyStakedUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	XMoney            weighted.Position `json:"xMoney"`
}

func (b *Bar) EntityKind() string { return KindBar }
func (b *Bar) EntityID() string   { return b.ID }

// NewBar returns a zeroed bar.
func NewBar(id string, ts uint64) *Bar {
	return &Bar{
		ID:                id,
		TotalSupply:       decimal.Zero,
		Ratio:             decimal.Zero,
		MoneyStaked:       decimal.Zero,
		MoneyStakedUSD:    decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		XMoney:            weighted.NewPosition(ts),
	}
}

// BarUser is a per-address bar position. In/Out flows count receipt tokens
// moved by plain transfers; the offsets record how much of the net inflow has
// already been attributed to MoneyStaked.
type BarUser struct {
	ID                string            `json:"id"`
	Bar               *string           `json:"bar"`
	XMoney            weighted.Position `json:"xMoney"`
	MoneyStaked       decimal.Decimal   `json:"moneyStaked"`
	MoneyStakedUSD    decimal.Decimal   `json:"moneyStakedUSD"`
	MoneyHarvested    decimal.Decimal   `json:"moneyHarvested"`
	MoneyHarvestedUSD decimal.Decimal   `json:"moneyHarvestedUSD"`
	XMoneyIn          decimal.Decimal   `json:"xMoneyIn"`
	XMoneyOut         decimal.Decimal   `json:"xMoneyOut"`
	MoneyIn           decimal.Decimal   `json:"moneyIn"`
	MoneyOut          decimal.Decimal   `json:"moneyOut"`
	USDIn             decimal.Decimal   `json:"usdIn"`
	USDOut            decimal.Decimal   `json:"usdOut"`
	XMoneyOffset      decimal.Decimal   `json:"xMoneyOffset"`
	MoneyOffset       decimal.Decimal   `json:"moneyOffset"`
	USDOffset         decimal.Decimal   `json:"usdOffset"`
}

func (u *BarUser) EntityKind() string { return KindBarUser }
func (u *BarUser) EntityID() string   { return u.ID }

// NewBarUser returns a zeroed bar user outside the bar.
func NewBarUser(id string, ts uint64) *BarUser {
	return &BarUser{
		ID:                id,
		XMoney:            weighted.NewPosition(ts),
		MoneyStaked:       decimal.Zero,
		MoneyStakedUSD:    decimal.Zero,
		MoneyHarvested:    decimal.Zero,
		MoneyHarvestedUSD: decimal.Zero,
		XMoneyIn:          decimal.Zero,
		XMoneyOut:         decimal.Zero,
		MoneyIn:           decimal.Zero,
		MoneyOut:          decimal.Zero,
		USDIn:             decimal.Zero,
		USDOut:            decimal.Zero,
		XMoneyOffset:      decimal.Zero,
		MoneyOffset:       decimal.Zero,
		USDOffset:         decimal.Zero,
	}
}

// BarHistory is the daily bar snapshot. Staked, harvested, minted, burned and
// age destroyed are day sums; age, supply and ratio mirror the bar.
type BarHistory struct {
	ID                 string          `json:"id"`
	Bar                string          `json:"bar"`
	Date               uint64          `json:"date"`
	Timeframe          string          `json:"timeframe"`
	MoneyStaked        decimal.Decimal `json:"moneyStaked"`
	MoneyStakedUSD     decimal.Decimal `json:"moneyStakedUSD"`
	MoneyHarvested     decimal.Decimal `json:"moneyHarvested"`
	MoneyHarvestedUSD  decimal.Decimal `json:"moneyHarvestedUSD"`
	XMoneyAge          decimal.Decimal `json:"xMoneyAge"`
	XMoneyAgeDestroyed decimal.Decimal `json:"xMoneyAgeDestroyed"`
	XMoneyMinted       decimal.Decimal `json:"xMoneyMinted"`
	XMoneyBurned       decimal.Decimal `json:"xMoneyBurned"`
	XMoneySupply       decimal.Decimal `json:"xMoneySupply"`
	Ratio              decimal.Decimal `json:"ratio"`
}

func (h *BarHistory) EntityKind() string { return KindBarHistory }
func (h *BarHistory) EntityID() string   { return h.ID }

// NewBarHistory returns an empty day bucket for the bar at ts.
func NewBarHistory(bar string, ts uint64) *BarHistory {
	return &BarHistory{
		ID:                 DayBucketID(bar, ts),
		Bar:                bar,
		Date:               DayIndex(ts) * 86400,
		Timeframe:          "Day",
		MoneyStaked:        decimal.Zero,
		MoneyStakedUSD:     decimal.Zero,
		MoneyHarvested:     decimal.Zero,
		MoneyHarvestedUSD:  decimal.Zero,
		XMoneyAge:          decimal.Zero,
		XMoneyAgeDestroyed: decimal.Zero,
		XMoneyMinted:       decimal.Zero,
		XMoneyBurned:       decimal.Zero,
		XMoneySupply:       decimal.Zero,
		Ratio:              decimal.Zero,
	}
}
