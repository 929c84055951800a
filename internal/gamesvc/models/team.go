package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is one player's financial position at a table. All monetary fields
// are decimals persisted as Decimal128. Version is the optimistic-lock
// counter for read-modify-write updates and never leaves the service.
type Team struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TableID          primitive.ObjectID   `bson:"table_id" json:"tableId"`
	TeamName         string               `bson:"team_name" json:"teamName"`
	Cash             decimal.Decimal      `bson:"cash" json:"cash"`
	Income           decimal.Decimal      `bson:"income" json:"income"`
	PassiveIncome    decimal.Decimal      `bson:"passive_income" json:"passiveIncome"`
	Assets           decimal.Decimal      `bson:"assets" json:"assets"`
	Expenses         decimal.Decimal      `bson:"expenses" json:"expenses"`
	SmallDealLoan    decimal.Decimal      `bson:"small_deal_loan" json:"smallDealLoan"`
	BigDealLoan      decimal.Decimal      `bson:"big_deal_loan" json:"bigDealLoan"`
	PersonalLoan     decimal.Decimal      `bson:"personal_loan" json:"personalLoan"`
	LoanInterestRate decimal.Decimal      `bson:"loan_interest_rate" json:"loanInterestRate"`
	IsAssetsFrozen   bool                 `bson:"is_assets_frozen" json:"isAssetsFrozen"`
	PaydayFrozenTurn int                  `bson:"payday_frozen_turn" json:"paydayFrozenTurn"`
	DealIDs          []primitive.ObjectID `bson:"deals" json:"-"`
	Deals            []Deal               `bson:"-" json:"deals"`
	Stocks           []Position           `bson:"stocks" json:"stocks"`
	Crypto           []Position           `bson:"crypto" json:"crypto"`
	Version          int64                `bson:"version" json:"-"`
}

// Position is one stock or crypto purchase. Repeated purchases of the same
// name are separate line items, never merged.
type Position struct {
	Name          string          `bson:"name" json:"name"`
	Amount        decimal.Decimal `bson:"amount" json:"amount"`
	PurchasePrice decimal.Decimal `bson:"purchase_price" json:"purchasePrice"`
}

// NewTeam returns a team with the fixed starting position.
func NewTeam(tableID primitive.ObjectID, name string) Team {
	return Team{
		TableID:          tableID,
		TeamName:         name,
		Cash:             decimal.NewFromInt(500000),
		Income:           decimal.NewFromInt(450000),
		PassiveIncome:    decimal.Zero,
		Assets:           decimal.Zero,
		Expenses:         decimal.NewFromInt(300000),
		SmallDealLoan:    decimal.Zero,
		BigDealLoan:      decimal.Zero,
		PersonalLoan:     decimal.Zero,
		LoanInterestRate: decimal.NewFromFloat(0.13),
		IsAssetsFrozen:   false,
		PaydayFrozenTurn: 0,
		DealIDs:          []primitive.ObjectID{},
		Stocks:           []Position{},
		Crypto:           []Position{},
	}
}
