package swap

import (
	"fmt"
	"math/big"

	"github.com/nekowawolf/taiko-swap-bot/chain"
)

// Pair is the token pair the bot cycles through. A is the token whose
// balance decides the direction.
type Pair struct {
	A chain.Token
	B chain.Token
}

type Direction int

const (
	AToB Direction = iota
	BToA
)

// SelectDirection swaps B back into A once A is fully spent, otherwise A to B.
func SelectDirection(balanceA *big.Int) Direction {
	if balanceA == nil || balanceA.Sign() == 0 {
		return BToA
	}
	return AToB
}

func (d Direction) Tokens(p Pair) (from, to chain.Token) {
	if d == BToA {
		return p.B, p.A
	}
	return p.A, p.B
}

func (d Direction) Label(p Pair) string {
	from, to := d.Tokens(p)
	return fmt.Sprintf("%s to %s", from.Symbol, to.Symbol)
}
