// Package engine holds the game rules. Every operation takes the current
// team state by value and returns the next state plus the narration lines to
// append; nothing here touches the store. The only non-determinism is the
// injected random source consumed by Roll and Chance.
package engine

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cashflow/internal/gamesvc/apperr"
	"cashflow/internal/gamesvc/models"
)

var (
	smallDealLoanRate = decimal.NewFromFloat(0.05)
	bigDealLoanRate   = decimal.NewFromFloat(0.10)
	penaltyAmount     = decimal.NewFromInt(10000)
)

type Engine struct {
	rng *rand.Rand
}

func New(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// Outcome is the result of one accepted action: the next team state, the
// log lines it produced in order, and any side effects the dispatcher must
// persist alongside the team.
type Outcome struct {
	Team      models.Team
	Logs      []string
	Event     string         // dice event name, Roll only
	Message   string         // one-shot user-facing message, Chance only
	Ownership *DealOwnership // ownership entry to append, deal purchases only
}

// DealOwnership is the side-effect record of a deal purchase.
type DealOwnership struct {
	DealID primitive.ObjectID
	Owner  models.DealOwner
}

// normalizeCash converts any cash deficit into additional personal loan and
// floors cash at zero. Runs as the final step of every mutating action.
func normalizeCash(team *models.Team) {
	if team.Cash.IsNegative() {
		team.PersonalLoan = team.PersonalLoan.Add(team.Cash.Neg())
		team.Cash = decimal.Zero
	}
}

// Payday settles one pay cycle. While assets are frozen the first payday
// forfeits income and only deducts expenses (forcing a loan of the current
// asset value if cash cannot cover them); the second payday unfreezes and
// settles normally.
func (e *Engine) Payday(team models.Team) Outcome {
	out := Outcome{}

	totalIncome := team.Income.Add(team.PassiveIncome)
	totalExpenses := team.Expenses.
		Add(team.PersonalLoan.Mul(team.LoanInterestRate)).
		Add(team.SmallDealLoan.Mul(smallDealLoanRate)).
		Add(team.BigDealLoan.Mul(bigDealLoanRate))

	if team.IsAssetsFrozen {
		if team.PaydayFrozenTurn == 0 {
			if totalExpenses.GreaterThan(team.Cash) {
				loanNeeded := team.Assets
				team.PersonalLoan = team.PersonalLoan.Add(loanNeeded)
				team.Cash = team.Cash.Add(loanNeeded)
				out.Logs = append(out.Logs, fmt.Sprintf(
					"Team %s: Assets are frozen. Expenses exceed cash. Forced to take a loan of %s to cover expenses.",
					team.TeamName, loanNeeded))
			}
			team.Cash = team.Cash.Sub(totalExpenses)
			team.PaydayFrozenTurn = 1
			out.Logs = append(out.Logs, fmt.Sprintf(
				"Team %s: Assets are frozen. Payday income is zero. Expenses have been deducted.",
				team.TeamName))
		} else {
			team.IsAssetsFrozen = false
			team.PaydayFrozenTurn = 0
			netPayday := totalIncome.Sub(totalExpenses)
			team.Cash = team.Cash.Add(netPayday)
			out.Logs = append(out.Logs, fmt.Sprintf(
				"Team %s: Assets are no longer frozen. Your net payday is %s.",
				team.TeamName, netPayday))
		}
	} else {
		netPayday := totalIncome.Sub(totalExpenses)
		team.Cash = team.Cash.Add(netPayday)
		out.Logs = append(out.Logs, fmt.Sprintf(
			"Team %s: You received a net payday of %s.",
			team.TeamName, netPayday))
	}

	normalizeCash(&team)
	out.Team = team
	return out
}

var diceEvents = [6]string{"Chance", "Small Deal", "Big Deal", "Stock", "Crypto", "Payday"}

// Roll draws a die and names the square landed on. It is advisory only: the
// landed action is not executed here, the client submits it separately.
func (e *Engine) Roll(team models.Team) Outcome {
	n := e.rng.Intn(6) + 1
	event := diceEvents[n-1]

	return Outcome{
		Team:  team,
		Event: event,
		Logs: []string{fmt.Sprintf("Team %s rolled a %d. Landing on: %s.",
			team.TeamName, n, event)},
	}
}

// ErrFrozenDeals rejects deal purchases while assets are frozen. The
// dispatcher also checks it before resolving the deal, so the frozen
// rejection wins over a missing-deal lookup.
var ErrFrozenDeals = apperr.Forbidden("Assets are frozen. Cannot buy deals.")

// BuyDeal purchases a catalog deal. Small and big deals share this logic;
// they differ only in which catalog partition the candidate came from.
func (e *Engine) BuyDeal(team models.Team, deal models.Deal) (Outcome, error) {
	if team.IsAssetsFrozen {
		return Outcome{}, ErrFrozenDeals
	}
	if deal.OwnedByTable(team.TableID) {
		return Outcome{}, apperr.Conflict("This deal is already owned by a team on this table.")
	}
	if team.Cash.LessThan(deal.Cost) {
		return Outcome{}, apperr.InsufficientFunds("Not enough cash to buy this deal.")
	}

	team.Cash = team.Cash.Sub(deal.Cost)
	team.PassiveIncome = team.PassiveIncome.Add(deal.PassiveIncome)
	team.Assets = team.Assets.Add(deal.Cost)
	team.DealIDs = append(team.DealIDs, deal.ID)
	normalizeCash(&team)

	ownership := DealOwnership{
		DealID: deal.ID,
		Owner:  models.DealOwner{TableID: team.TableID, TeamID: team.ID},
	}
	return Outcome{
		Team:      team,
		Ownership: &ownership,
		Logs: []string{fmt.Sprintf("Team %s purchased %q for %s.",
			team.TeamName, deal.Name, deal.Cost)},
	}, nil
}

func (e *Engine) BuyStock(team models.Team, name string, amount, price decimal.Decimal) (Outcome, error) {
	return buyPosition(team, name, amount, price, "stock")
}

func (e *Engine) BuyCrypto(team models.Team, name string, amount, price decimal.Decimal) (Outcome, error) {
	return buyPosition(team, name, amount, price, "crypto")
}

// buyPosition handles stock and crypto purchases. Amount and price are
// caller-supplied and trusted beyond positivity; the team's personal-loan
// headroom counts as available funds, with any cash deficit rolled into the
// loan by normalizeCash.
func buyPosition(team models.Team, name string, amount, price decimal.Decimal, kind string) (Outcome, error) {
	if team.IsAssetsFrozen {
		plural := kind
		if kind == "stock" {
			plural = "stocks"
		}
		return Outcome{}, apperr.Forbidden("Assets are frozen. Cannot buy " + plural + ".")
	}
	if !amount.IsPositive() || !price.IsPositive() {
		return Outcome{}, apperr.Validation("Amount and price must be positive.")
	}

	totalCost := price.Mul(amount)
	if totalCost.GreaterThan(team.Cash.Add(team.PersonalLoan)) {
		return Outcome{}, apperr.InsufficientFunds("Not enough funds to buy this " + kind + ".")
	}

	team.Cash = team.Cash.Sub(totalCost)
	team.Assets = team.Assets.Add(totalCost)

	position := models.Position{Name: name, Amount: amount, PurchasePrice: price}
	if kind == "stock" {
		team.Stocks = append(team.Stocks, position)
	} else {
		team.Crypto = append(team.Crypto, position)
	}
	normalizeCash(&team)

	return Outcome{
		Team: team,
		Logs: []string{fmt.Sprintf("Team %s bought %s units of %s %s for %s.",
			team.TeamName, amount, name, kind, totalCost)},
	}, nil
}

// FreezeAssets starts the two-turn frozen-payday cycle. No funds move.
func (e *Engine) FreezeAssets(team models.Team) Outcome {
	team.IsAssetsFrozen = true
	team.PaydayFrozenTurn = 0

	return Outcome{
		Team: team,
		Logs: []string{fmt.Sprintf("Team %s has had their assets frozen.", team.TeamName)},
	}
}

// Penalty deducts a flat 10,000, frozen or not.
func (e *Engine) Penalty(team models.Team) Outcome {
	team.Cash = team.Cash.Sub(penaltyAmount)
	normalizeCash(&team)

	return Outcome{
		Team: team,
		Logs: []string{fmt.Sprintf("Team %s paid a penalty of 10,000.", team.TeamName)},
	}
}

func (e *Engine) BorrowLoan(team models.Team, amount decimal.Decimal) (Outcome, error) {
	if !amount.IsPositive() {
		return Outcome{}, apperr.Validation("Invalid loan amount.")
	}

	team.PersonalLoan = team.PersonalLoan.Add(amount)
	team.Cash = team.Cash.Add(amount)

	return Outcome{
		Team: team,
		Logs: []string{fmt.Sprintf("Team %s borrowed a loan of %s.", team.TeamName, amount)},
	}, nil
}

func (e *Engine) RepayLoan(team models.Team, amount decimal.Decimal) (Outcome, error) {
	if !amount.IsPositive() {
		return Outcome{}, apperr.Validation("Invalid repayment amount.")
	}
	if team.Cash.LessThan(amount) || team.PersonalLoan.LessThan(amount) {
		return Outcome{}, apperr.InsufficientFunds("Not enough cash or loan outstanding to repay that amount.")
	}

	team.PersonalLoan = team.PersonalLoan.Sub(amount)
	team.Cash = team.Cash.Sub(amount)

	return Outcome{
		Team: team,
		Logs: []string{fmt.Sprintf("Team %s repaid a loan of %s.", team.TeamName, amount)},
	}, nil
}
