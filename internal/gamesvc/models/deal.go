package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DealTypeSmall = "small"
	DealTypeBig   = "big"
)

// Deal is a static catalog asset shared across tables. Owners records which
// team at which table purchased it; exclusivity is per table, not global.
type Deal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DealType      string             `bson:"deal_type" json:"dealType"`
	Name          string             `bson:"name" json:"name"`
	Cost          decimal.Decimal    `bson:"cost" json:"cost"`
	PassiveIncome decimal.Decimal    `bson:"passive_income" json:"passiveIncome"`
	Owners        []DealOwner        `bson:"owners" json:"owners"`
}

type DealOwner struct {
	TableID primitive.ObjectID `bson:"table_id" json:"tableId"`
	TeamID  primitive.ObjectID `bson:"team_id" json:"teamId"`
}

func ValidDealType(dealType string) bool {
	return dealType == DealTypeSmall || dealType == DealTypeBig
}

// OwnedByTable reports whether any team at the given table already owns the deal.
func (d *Deal) OwnedByTable(tableID primitive.ObjectID) bool {
	for _, o := range d.Owners {
		if o.TableID == tableID {
			return true
		}
	}
	return false
}
