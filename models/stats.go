package models

// GameKind identifies which settlement mechanism produced a stat update.
type GameKind string

const (
	GameKindCoinflip GameKind = "coinflip"
	GameKindMarket   GameKind = "market"
)

// GamblingStat accumulates per-(account, game) settlement statistics.
// Created on first settlement for the pair, updated additively afterwards.
type GamblingStat struct {
	AccountID   string   `db:"account_id"`
	Game        GameKind `db:"game"`
	Games       int64    `db:"games"`
	Wins        int64    `db:"wins"`
	Losses      int64    `db:"losses"`
	Wagered     int64    `db:"wagered"`
	Won         int64    `db:"won"`
	Lost        int64    `db:"lost"`
	BiggestWin  int64    `db:"biggest_win"`
	BiggestLoss int64    `db:"biggest_loss"`
}

// StatDelta is one settlement's contribution to a GamblingStat.
type StatDelta struct {
	AccountID string
	Game      GameKind
	Won       bool
	Wagered   int64
	Amount    int64 // amount won or lost, always non-negative
}

// Apply folds a settlement outcome into the accumulated stat.
func (s *GamblingStat) Apply(d StatDelta) {
	s.Games++
	s.Wagered += d.Wagered
	if d.Won {
		s.Wins++
		s.Won += d.Amount
		if d.Amount > s.BiggestWin {
			s.BiggestWin = d.Amount
		}
	} else {
		s.Losses++
		s.Lost += d.Amount
		if d.Amount > s.BiggestLoss {
			s.BiggestLoss = d.Amount
		}
	}
}
