package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	config "cashflow/configs"
	"cashflow/internal/db"
	"cashflow/internal/gamesvc/models"
	"cashflow/internal/gamesvc/store"

	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "seed"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

type catalogDeal struct {
	name          string
	cost          int64
	passiveIncome int64
}

var smallDeals = []catalogDeal{
	{"Small Business A", 50000, 5000},
	{"Small Property B", 100000, 10000},
	{"Online Store C", 75000, 7500},
	{"Vintage Car", 60000, 6000},
	{"Side Hustle", 25000, 2500},
}

var bigDeals = []catalogDeal{
	{"Apartment Complex A", 500000, 50000},
	{"Shopping Mall B", 1000000, 100000},
	{"Commercial Office C", 800000, 80000},
	{"Tech Startup D", 1500000, 150000},
	{"Hotel Franchise E", 2000000, 200000},
}

// Seeds the static deal catalog. Upserts are keyed by name and type, so
// re-running is safe and never touches ownership of deals already in play.
func main() {
	database, cancelConn, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer cancelConn()

	dealStore := store.NewDealStore(database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seed := func(deals []catalogDeal, dealType string) {
		for _, d := range deals {
			deal := models.Deal{
				DealType:      dealType,
				Name:          d.name,
				Cost:          decimal.NewFromInt(d.cost),
				PassiveIncome: decimal.NewFromInt(d.passiveIncome),
			}
			if err := dealStore.Upsert(ctx, deal); err != nil {
				log.Fatalf("Failed to seed deal %q: %v", d.name, err)
			}
		}
	}

	seed(smallDeals, models.DealTypeSmall)
	seed(bigDeals, models.DealTypeBig)

	log.Infof("deal catalog seeded: %d small, %d big", len(smallDeals), len(bigDeals))
}
