package prompt

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/nekowawolf/taiko-swap-bot/chain"
)

// Prompter asks blocking questions on a terminal.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	answer, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// AskCount asks for a positive integer.
func (p *Prompter) AskCount(question string) (int, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q, please enter a positive integer", answer)
	}
	return n, nil
}

// AskEther asks for a positive amount in ether and returns it in wei.
func (p *Prompter) AskEther(question string) (*big.Int, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return nil, err
	}
	wei, err := chain.ParseUnits(answer, chain.EtherDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return wei, nil
}
