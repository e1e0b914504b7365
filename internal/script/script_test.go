package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepchain/internal/batch"
	"stepchain/internal/config"
	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/scenario"
	"stepchain/internal/step"
)

const pageJSON = `{"elements": [
  {"id": "user", "tag": "input", "focusable": true},
  {"id": "login", "tag": "button", "classes": ["primary"]},
  {"id": "banner", "tag": "div", "visible": false}
]}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestLoad_RunsScenario(t *testing.T) {
	t.Setenv("STEPCHAIN_TEST_PASSWORD", "hunter2")
	dir := writeFiles(t, map[string]string{
		"page.json": pageJSON,
		"user.json": `{"account": {"name": "alice"}}`,
		"scenario.yaml": `
defaults: {shortWait: 5ms, poll: 10ms}
scenario:
  name: login
  page: page.json
  vars:
    secret: ${env:STEPCHAIN_TEST_PASSWORD}
  data:
    file: user.json
    extract:
      user: $.account.name
  steps:
    - do: waitForElement
      args: ["#user", 200ms]
    - name: fill
      steps:
        - do: setValue
          args: ["#user", "${user}"]
        - do: assertValue
          args: ["#user", "alice"]
    - do: waitAndClick
      args: ["button.primary", 100]
    - do: setVar
      args: [done, "yes"]
`,
	})

	cfg, err := config.LoadConfig(filepath.Join(dir, "scenario.yaml"))
	require.NoError(t, err)
	sc, err := Load(cfg)
	require.NoError(t, err)

	assert.Equal(t, "login", sc.Name)
	assert.Equal(t, 4, sc.Batch.Len())
	secret, _ := sc.Vars.Get("secret")
	assert.Equal(t, "hunter2", secret)

	scenario.Run(t, sc.Batch, scenario.WithPage(sc.Page), scenario.WithVariables(sc.Vars))

	v, _ := sc.Page.Value("#user")
	assert.Equal(t, "alice", v)
	done, _ := sc.Vars.Get("done")
	assert.Equal(t, "yes", done)
	assert.Contains(t, sc.Page.EventNames(), dom.EventClick)
}

func TestCompile_WorstCase(t *testing.T) {
	sc := config.ScenarioConfig{
		Name: "budget",
		Steps: []config.StepConfig{
			{Do: "wait", Args: []any{"1s"}},
			{Name: "group", Defaults: batch.Options{ShortWait: 20 * time.Millisecond}, Steps: []config.StepConfig{
				{Do: "click", Args: []any{"#x"}},
			}},
			{Do: "debug", Args: []any{"hi"}},
		},
	}
	b, err := Compile(sc, batch.DefaultOptions(), core.NewVariables())
	require.NoError(t, err)

	want := time.Second + (step.DefaultDuration + 20*time.Millisecond) + step.DefaultDuration
	assert.Equal(t, want, b.WorstCase())
	assert.Equal(t, "group", b.Steps()[1].Name())
}

func TestCompile_Errors(t *testing.T) {
	sc := config.ScenarioConfig{Steps: []config.StepConfig{
		{Do: "noSuchStep"},
		{Do: "click"},
		{Do: "setValue", Args: []any{"#a", "${missing}"}},
		{Steps: []config.StepConfig{{Do: "wait", Args: []any{"later"}}}},
	}}
	_, err := Compile(sc, batch.DefaultOptions(), core.NewVariables())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConstruction)
	for _, want := range []string{"steps[0]", `"noSuchStep"`, "steps[1]", `variable "missing"`, "steps[3].steps[0]"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestAssertValue_Failure(t *testing.T) {
	page := dom.NewPage(&dom.Node{ID: "user", Tag: "input", Value: "bob"})
	b := batch.New().Call("assertValue", "#user", "alice")

	h := scenario.NewCLI(scenario.DefaultGrace)
	_, err := scenario.Execute(context.Background(), b, h, scenario.WithPage(page))
	assert.EqualError(t, err, "value of \"#user\"\nexpected: alice\nactual: bob")
}

func TestAssertVisible(t *testing.T) {
	page := dom.NewPage(&dom.Node{ID: "banner", Tag: "div", Hidden: true})
	b := batch.New().Call("assertVisible", "#banner")

	_, err := scenario.Execute(context.Background(), b, scenario.NewCLI(scenario.DefaultGrace), scenario.WithPage(page))
	assert.ErrorContains(t, err, "visibility of \"#banner\"")
}

func TestSeed_DataErrors(t *testing.T) {
	err := Seed(config.ScenarioConfig{Data: &config.DataConfig{File: filepath.Join(t.TempDir(), "nope.json")}}, core.NewVariables())
	assert.ErrorContains(t, err, "reading data file")

	err = Seed(config.ScenarioConfig{Vars: map[string]string{"x": "${env:STEPCHAIN_SURELY_UNSET}"}}, core.NewVariables())
	assert.ErrorContains(t, err, `var "x"`)
}

func TestCompile_SetVarFeedsLaterSteps(t *testing.T) {
	sc := config.ScenarioConfig{
		Name: "token",
		Steps: []config.StepConfig{
			{Do: "setVar", Args: []any{"token", "abc"}},
			{Do: "debug", Args: []any{"token is ${token}"}},
			{Name: "fill", Steps: []config.StepConfig{
				{Do: "setValue", Args: []any{"#user", "${token}"}},
				{Do: "assertValue", Args: []any{"#user", "${token}"}},
			}},
		},
	}
	opts := batch.Options{ShortWait: 5 * time.Millisecond}
	vars := core.NewVariables()

	b, err := Compile(sc, opts, vars)
	require.NoError(t, err)

	want := step.DefaultDuration + step.DefaultDuration + (step.DefaultDuration + 5*time.Millisecond) + step.DefaultDuration
	assert.Equal(t, want, b.WorstCase())

	page := dom.NewPage(&dom.Node{ID: "user", Tag: "input", Focusable: true})
	scenario.Run(t, b, scenario.WithPage(page), scenario.WithVariables(vars))

	v, _ := page.Value("#user")
	assert.Equal(t, "abc", v)
}

func TestCompile_SetVarOnlyCoversLaterSteps(t *testing.T) {
	sc := config.ScenarioConfig{Steps: []config.StepConfig{
		{Do: "debug", Args: []any{"${token}"}},
		{Do: "setVar", Args: []any{"token", "abc"}},
	}}
	_, err := Compile(sc, batch.DefaultOptions(), core.NewVariables())
	assert.ErrorContains(t, err, `steps[0]: argument 1: variable "token" not found`)
}

func TestCompile_DeferredArgumentsStillValidated(t *testing.T) {
	sc := config.ScenarioConfig{Steps: []config.StepConfig{
		{Do: "setVar", Args: []any{"sel", "#user"}},
		{Do: "setValue", Args: []any{"${sel}"}},
	}}
	_, err := Compile(sc, batch.DefaultOptions(), core.NewVariables())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConstruction)
	assert.ErrorContains(t, err, "setValue requires a value")
}
