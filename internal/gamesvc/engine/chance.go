package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cashflow/internal/gamesvc/models"
)

// ChanceCard is a plain data record; drawing one applies CashDelta to the
// team's cash.
type ChanceCard struct {
	Title     string
	CashDelta decimal.Decimal
}

var chanceCards = []ChanceCard{
	{Title: "Bonus!", CashDelta: decimal.NewFromInt(50000)},
	{Title: "Penalty", CashDelta: decimal.NewFromInt(-20000)},
}

// Chance draws a card uniformly and applies its cash delta. The card title
// comes back both as a log line and as a one-shot response message.
func (e *Engine) Chance(team models.Team) Outcome {
	card := chanceCards[e.rng.Intn(len(chanceCards))]

	team.Cash = team.Cash.Add(card.CashDelta)
	normalizeCash(&team)

	return Outcome{
		Team:    team,
		Message: fmt.Sprintf("You drew a Chance card: %q", card.Title),
		Logs: []string{fmt.Sprintf("Team %s drew a Chance card: %q",
			team.TeamName, card.Title)},
	}
}
