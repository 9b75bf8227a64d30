package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mcs-education/starcat/i18n"
)

const demo = `{"name":"Demo System","stars":[{"name":"Demo Star","lum":1.0}],"planets":[{"name":"Demo b","aAU":1.0,"periodDays":365.25,"radiusEarth":1.0}]}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, _ = runCLI("explode")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI("validate")
	assert.Equal(t, 2, code)

	code, _, stderr = runCLI("validate", "-format", "xml", "x.json")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown format "xml"`)
}

func TestValidate_Text(t *testing.T) {
	good := writeFile(t, "demo.json", demo)
	warn := writeFile(t, "warn.json", `{"name":"S","planets":[{"name":"b","aAU":1}]}`)

	code, stdout, _ := runCLI("validate", good, warn)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, good+": ok (1 systems, 1 bodies, 0 warnings)")
	assert.Contains(t, stdout, warn+": ok (1 systems, 0 bodies, 2 warnings)")
	assert.Contains(t, stdout, `missing_required_field at /planets/0/periodDays [planet "b"]`)
}

func TestValidate_FatalExitsOne(t *testing.T) {
	good := writeFile(t, "demo.json", demo)
	bad := writeFile(t, "empty.json", `[]`)

	code, stdout, _ := runCLI("validate", good, bad, filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, bad+": FATAL empty_dataset")
	assert.Contains(t, stdout, "missing.json: ERROR")
}

func TestValidate_JSONAndYAML(t *testing.T) {
	path := writeFile(t, "demo.yaml", "name: Demo System\nplanets:\n  - name: b\n    aAU: 1\n")

	code, stdout, _ := runCLI("validate", "-format", "json", path)
	require.Equal(t, 0, code)
	var reports []fileReport
	require.NoError(t, gojson.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].OK)
	assert.Len(t, reports[0].Warnings, 2)
	assert.Len(t, reports[0].Fingerprint, 64)

	code, stdout, _ = runCLI("validate", "-format", "yaml", path)
	require.Equal(t, 0, code)
	var generic []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, true, generic[0]["ok"])
}

func TestValidate_Japanese(t *testing.T) {
	t.Cleanup(func() { i18n.SetLanguage("en") })
	path := writeFile(t, "warn.json", `{"name":"S","planets":[{"name":"b","aAU":1,"radiusEarth":1}]}`)

	code, stdout, _ := runCLI("validate", "-lang", "ja", "-format", "json", path)
	require.Equal(t, 0, code)
	var reports []fileReport
	require.NoError(t, gojson.Unmarshal([]byte(stdout), &reports))
	require.Len(t, reports[0].Warnings, 1)
	assert.Equal(t, "必須フィールドが不足しています (periodDays)", reports[0].Warnings[0].Message)
}

func TestSummary(t *testing.T) {
	path := writeFile(t, "demo.json", demo)
	code, stdout, _ := runCLI("summary", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "HABITABLE ZONE (AU)")
	assert.Contains(t, stdout, "Demo System")
	assert.Contains(t, stdout, "circumprimary")
	assert.NotContains(t, stdout, "warnings")

	code, _, _ = runCLI("summary", writeFile(t, "bad.json", `"nope"`))
	assert.Equal(t, 1, code)

	code, _, _ = runCLI("summary")
	assert.Equal(t, 2, code)
}
