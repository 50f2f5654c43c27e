package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	ataext "candy-drop/pkg/solana/associated_token_account_extended"
	_ "candy-drop/pkg/solana/candymachine" // registers the mint_nft decoder

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text"
	"github.com/gagliardetto/treeout"
)

// Approver decides on connection and signing requests
type Approver interface {
	ApproveConnect(ctx context.Context, account solana.PublicKey) (bool, error)
	ApproveTransaction(ctx context.Context, tx *solana.Transaction) (bool, error)
}

// AutoApprover approves every request
type AutoApprover struct{}

func (AutoApprover) ApproveConnect(context.Context, solana.PublicKey) (bool, error) {
	return true, nil
}

func (AutoApprover) ApproveTransaction(context.Context, *solana.Transaction) (bool, error) {
	return true, nil
}

// TerminalApprover prompts on out and reads y/n answers from in.
// A single goroutine reads in line by line, so an abandoned prompt never
// steals the answer to the next one.
type TerminalApprover struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan answer
}

type answer struct {
	line string
	err  error
}

func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan answer),
	}
}

func (a *TerminalApprover) ApproveConnect(ctx context.Context, account solana.PublicKey) (bool, error) {
	return a.ask(ctx, fmt.Sprintf("Connect account %s to candydrop?", account))
}

func (a *TerminalApprover) ApproveTransaction(ctx context.Context, tx *solana.Transaction) (bool, error) {
	fmt.Fprintln(a.out, PreviewTransaction(tx))
	return a.ask(ctx, "Sign and send this transaction?")
}

func (a *TerminalApprover) readLines() {
	for {
		line, err := a.in.ReadString('\n')
		a.lines <- answer{line, err}
		if err != nil {
			close(a.lines)
			return
		}
	}
}

func (a *TerminalApprover) ask(ctx context.Context, question string) (bool, error) {
	a.once.Do(func() { go a.readLines() })
	fmt.Fprintf(a.out, "%s [y/N] ", question)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans, ok := <-a.lines:
		if !ok {
			// input already exhausted
			return false, nil
		}
		if ans.err != nil && ans.err != io.EOF {
			return false, ans.err
		}
		switch strings.ToLower(strings.TrimSpace(ans.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// PreviewTransaction renders the signatures, message header and decoded
// instructions of tx as a tree.
func PreviewTransaction(tx *solana.Transaction) string {
	tree := treeout.New("")
	tree.Child(fmt.Sprintf("Signatures[len=%d]", len(tx.Signatures))).ParentFunc(func(sigs treeout.Branches) {
		for _, sig := range tx.Signatures {
			sigs.Child(sig.String())
		}
	})
	tree.Child("Message").ParentFunc(func(message treeout.Branches) {
		tx.Message.EncodeToTree(message)
	})
	tree.Child(fmt.Sprintf("Instructions[len=%d]", len(tx.Message.Instructions))).ParentFunc(func(branch treeout.Branches) {
		for i := range tx.Message.Instructions {
			encodeInstruction(tx, &tx.Message.Instructions[i], branch)
		}
	})
	return tree.String()
}

func encodeInstruction(tx *solana.Transaction, inst *solana.CompiledInstruction, branch treeout.Branches) {
	programID, err := tx.ResolveProgramIDIndex(inst.ProgramIDIndex)
	if err != nil {
		branch.Child(fmt.Sprintf("cannot resolve program: %s", err))
		return
	}
	accounts, err := inst.ResolveInstructionAccounts(&tx.Message)
	if err != nil {
		branch.Child(fmt.Sprintf("cannot resolve accounts of %s: %s", programID, err))
		return
	}
	decoded, err := decodeInstruction(programID, accounts, inst.Data)
	if err != nil {
		branch.Child(fmt.Sprintf("cannot decode instruction for %s program: %s", programID, err))
		return
	}
	if enc, ok := decoded.(text.EncodableToTree); ok {
		enc.EncodeToTree(branch)
	} else {
		branch.Child(spew.Sdump(decoded))
	}
}

// decodeInstruction prefers the extended associated token account decoder,
// since the registered upstream one does not know CreateIdempotent.
func decodeInstruction(programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (interface{}, error) {
	if programID.Equals(ataext.ProgramID) {
		return ataext.DecodeInstruction(accounts, data)
	}
	return solana.DecodeInstruction(programID, accounts, data)
}
