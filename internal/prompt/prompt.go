// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt asks the user questions on a terminal.
//
// Reads observe context cancellation, so an interrupt while the tool waits
// for input ends the run instead of blocking until the next newline.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompt texts shown in interactive mode.
const (
	ContinueText = "Press Enter to continue..."
	SaveText     = "Do you want to save the results? (Yes/no, default is Yes): "
	ExportText   = "Do you want to export the results to CSV or JSON? (default is JSON): "
	BaseURLText  = "Enter BASEURL: "
	APITokenText = "Enter API_TOKEN: "
)

type lineResult struct {
	line string
	err  error
}

// Prompter reads answers from in and writes questions to out. A Prompter is
// not safe for concurrent use.
type Prompter struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the answer with surrounding whitespace
// removed. At end of input with no answer it returns io.EOF.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choice is Ask with the answer lower-cased.
func (p *Prompter) Choice(ctx context.Context, question string) (string, error) {
	answer, err := p.Ask(ctx, question)
	return strings.ToLower(answer), err
}

// Confirm asks a question whose default answer is yes. An empty answer, "y"
// or "yes" (any case) confirms; everything else declines.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Choice(ctx, question)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return answer == "" || answer == "y" || answer == "yes", nil
}

// Continue waits for the user to press Enter. End of input counts as Enter.
func (p *Prompter) Continue(ctx context.Context) error {
	_, err := p.Ask(ctx, ContinueText)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// readLine returns the next line without its terminator. A read interrupted
// by ctx stays pending and is picked up by the next call.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		p.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		if r.err != nil && (!errors.Is(r.err, io.EOF) || r.line == "") {
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}
