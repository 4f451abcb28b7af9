package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestRenderer(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeAuto},
		{in: "auto", want: ModeAuto},
		{in: "TEXT", want: ModeText},
		{in: "markdown", want: ModeMarkdown},
		{in: "json", want: ModeJSON},
		{in: "yaml", want: ModeYAML},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		tty  bool
		want Mode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty defaults to auto", "", false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit text piped", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestTable(t *testing.T) {
	headers := []string{"name", "type"}
	rows := [][]any{{"id", "INT"}, {"label", "NVARCHAR"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		require.NoError(t, r.Table(headers, rows))
		assert.Contains(t, out.String(), "| name | type |")
		assert.Contains(t, out.String(), "| label | NVARCHAR |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, true)
		require.NoError(t, r.Table(headers, rows))
		assert.Contains(t, out.String(), "NVARCHAR")
		assert.Contains(t, out.String(), "┌")
	})

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		require.NoError(t, r.Table(headers, rows))
		var got []map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, []map[string]string{
			{"name": "id", "type": "INT"},
			{"name": "label", "type": "NVARCHAR"},
		}, got)
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeYAML, false)
		require.NoError(t, r.Table(headers, rows))
		var got []map[string]string
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Len(t, got, 2)
		assert.Equal(t, "label", got[1]["name"])
	})
}

func TestValue(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, true)
	require.NoError(t, r.Value("version", "2024.1"))
	assert.Equal(t, "2024.1\n", out.String())

	r, out, _ = newTestRenderer(ModeJSON, false)
	require.NoError(t, r.Value("exists", true))
	assert.JSONEq(t, `{"exists": true}`, out.String())

	r, out, _ = newTestRenderer(ModeMarkdown, false)
	require.NoError(t, r.Value("exists", false))
	assert.Equal(t, "- **exists**: false\n", out.String())
}

func TestMessages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, true)
	r.Success("done")
	r.Warning("careful")
	r.Error("broken")
	assert.Equal(t, "✓ done\n", out.String())
	assert.Contains(t, errOut.String(), "warning: careful")
	assert.Contains(t, errOut.String(), "error: broken")
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "## Tables", FormatHeader(2, "Tables"))
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "###### Deep", FormatHeader(9, "Deep"))
	assert.Equal(t, "- **host**: localhost", FormatKeyValue("host", "localhost"))
	assert.Equal(t, "```sql\nselect 1\n```", FormatCodeBlock("sql", "select 1\n"))
}
