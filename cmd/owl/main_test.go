package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/cache"
	"owl/internal/decoration"
	"owl/internal/frontend"
	"owl/internal/mir"
	"owl/internal/source"
)

const libText = "fn make() {\n    let v = Vec::new();\n}\n"

func writeFacts(t *testing.T) string {
	t.Helper()
	cf := frontend.CrateFacts{
		Crate:   "lib",
		Sources: map[string]string{"src/lib.rs": libText},
		Bodies: []frontend.Body{{
			FnID:   7,
			Name:   "make",
			File:   "src/lib.rs",
			Locals: []frontend.LocalDecl{{Ty: "()"}, {Ty: "std::vec::Vec<i32>"}},
			DebugVars: []frontend.DebugVar{
				{Name: "v", Local: 1, Span: frontend.Span{Lo: 20, Hi: 21}},
			},
			Blocks: []frontend.RawBlock{
				{Terminator: &frontend.RawTerminator{
					Kind:   frontend.TerminatorCall,
					Span:   frontend.Span{Lo: 24, Hi: 34},
					Place:  1,
					FnSpan: frontend.Span{Lo: 24, Hi: 34},
				}},
				{Terminator: &frontend.RawTerminator{Kind: frontend.TerminatorOther, Span: frontend.Span{Lo: 36, Hi: 37}}},
			},
			Facts: frontend.Relations{
				VarLiveOnEntry: map[frontend.Point][]uint32{2: {1}, 3: {1}},
			},
		}},
	}
	data, err := json.Marshal(cf)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lib.owlfacts.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OWL_CACHE", "false")
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeStreamsMessages(t *testing.T) {
	path := writeFacts(t)
	out, err := execute(t, "--color=off", "analyze", "--facts", path, "--dump=false")
	require.NoError(t, err)

	var msgs []frontend.Message
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		msg, err := frontend.DecodeMessage(sc.Bytes())
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	require.Len(t, msgs, 2)
	assert.Equal(t, frontend.ReasonAnalyzed, msgs[0].Reason)
	assert.Equal(t, frontend.Message{Reason: frontend.ReasonUnitChecked, Unit: "lib", Total: 1}, msgs[1])

	libPath := source.NormalizePath(filepath.Join(filepath.Dir(path), "src", "lib.rs"))
	fns := msgs[0].Workspace.Functions(libPath)
	require.Len(t, fns, 1)
	assert.Equal(t, uint32(7), fns[0].FnID)
	v, ok := fns[0].Decl(1)
	require.True(t, ok)
	assert.Equal(t, "v", v.Name)
}

func TestAnalyzeDump(t *testing.T) {
	path := writeFacts(t)
	out, err := execute(t, "--color=off", "analyze", "--facts", path, "--dump=true")
	require.NoError(t, err)
	assert.NotContains(t, out, `"reason"`)
	assert.NotEmpty(t, out)
}

func TestAnalyzeMissingFacts(t *testing.T) {
	_, err := execute(t, "--color=off", "analyze", "--facts", filepath.Join(t.TempDir(), "none.owlfacts"), "--dump=false")
	assert.Error(t, err)
}

func TestParseSwitch(t *testing.T) {
	for in, want := range map[string]switchMode{"": switchAuto, "AUTO": switchAuto, "on": switchOn, " off ": switchOff} {
		got, err := parseSwitch("ui", in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseSwitch("ui", "sometimes")
	assert.ErrorContains(t, err, "--ui")
	assert.True(t, switchOn.enabled(os.Stdout))
	assert.False(t, switchOff.enabled(os.Stdout))
}

func TestRenderDecorations(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	text := "fn f() {\n\tlet s = String::new();\n}\n"
	decos := []decoration.Deco{
		{Kind: decoration.KindCall, Local: mir.NewVarHandle(1, 1), Range: source.Range{From: 18, Until: 31}, HoverText: "function call"},
		{Kind: decoration.KindLifetime, Range: source.Range{From: 14, Until: 34}, HoverText: "lifetime of variable `s`", Overlapped: true},
	}
	var buf bytes.Buffer
	renderDecorations(&buf, text, decos)

	want := strings.Join([]string{
		"call 2:10-2:23 function call",
		"  " + "    let s = String::new();",
		"  " + strings.Repeat(" ", 12) + strings.Repeat("^", 13),
		"lifetime 2:6-3:2 lifetime of variable `s` (overlapped)",
		"  " + "    let s = String::new();",
		"  " + strings.Repeat(" ", 8) + strings.Repeat("^", 18),
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderVersionJSON(&buf, versionOptions{showHash: true}))
	var payload versionPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "owl", payload.Tool)
	assert.NotEmpty(t, payload.Version)
	assert.NotEmpty(t, payload.GitCommit)
	assert.Empty(t, payload.BuildDate)
	assert.Zero(t, payload.Cache)

	buf.Reset()
	renderVersionPretty(&buf, versionOptions{showBuild: true})
	assert.Contains(t, buf.String(), fmt.Sprintf("cache:  schema %d", cache.SchemaVersion))
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, configDir(dir))
	assert.Equal(t, dir, configDir(filepath.Join(dir, "main.rs")))
}
