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

package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  https://bd.example.com \r\nsecret\n"), &out)

	url, err := p.Ask(context.Background(), BaseURLText)
	require.NoError(t, err)
	assert.Equal(t, "https://bd.example.com", url)

	token, err := p.Ask(context.Background(), APITokenText)
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	assert.Equal(t, BaseURLText+APITokenText, out.String())

	_, err = p.Ask(context.Background(), BaseURLText)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAsk_LastLineWithoutNewline(t *testing.T) {
	p := New(strings.NewReader("csv"), io.Discard)

	got, err := p.Choice(context.Background(), ExportText)
	require.NoError(t, err)
	assert.Equal(t, "csv", got)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Yes\n", true},
		{" YES \n", true},
		{"n\n", false},
		{"no\n", false},
		{"maybe\n", false},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p := New(strings.NewReader(tt.input), io.Discard)
			got, err := p.Confirm(context.Background(), SaveText)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChoice_LowerCases(t *testing.T) {
	p := New(strings.NewReader("JSON\n"), io.Discard)
	got, err := p.Choice(context.Background(), ExportText)
	require.NoError(t, err)
	assert.Equal(t, "json", got)
}

func TestContinue(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("\n"), &out)

	require.NoError(t, p.Continue(context.Background()))
	assert.Equal(t, ContinueText, out.String())

	// End of input counts as Enter
	require.NoError(t, p.Continue(context.Background()))
}

func TestAsk_ContextCanceled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := New(r, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Ask(ctx, ContinueText)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The interrupted read is still delivered to the next call
	go func() { _, _ = io.WriteString(w, "late\n") }()
	got, err := p.Ask(context.Background(), BaseURLText)
	require.NoError(t, err)
	assert.Equal(t, "late", got)
}
