package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/populare/dbproxy/internal/facade"
	"github.com/populare/dbproxy/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "ok"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("INTEGRITY_VIOLATION", "failed to create post", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTEGRITY_VIOLATION", resp.Error.Code)
	assert.Equal(t, "failed to create post", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_YAMLSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "yaml",
		Writer: buf,
	}

	err := formatter.SuccessLines([]postView{{ID: 1, Text: "t", Author: "a", CreatedAt: "2022-01-01T00:00:00Z"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, `status: ok
data:
  - id: 1
    text: t
    author: a
    created_at: "2022-01-01T00:00:00Z"
`, buf.String())
}

func TestOutputFormatter_YAMLError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "yaml",
		Writer: buf,
	}

	require.NoError(t, formatter.Error("USAGE", "bad flag", []string{"--limit"}))

	var resp CLIResponse
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "USAGE", resp.Error.Code)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", buf.String())
}

func TestOutputFormatter_TextLines(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.SuccessLines(nil, []string{`{"id":2}`, `{"id":1}`}))
	assert.Equal(t, "{\"id\":2}\n{\"id\":1}\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.SuccessLines([]postView{}, []string{}))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("SCHEMA_NOT_INITIALIZED", "failed to read posts", map[string]string{"hint": "run init-db"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [SCHEMA_NOT_INITIALIZED]")
	assert.Contains(t, buf.String(), "failed to read posts")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("SCHEMA_NOT_INITIALIZED", "failed to read posts", map[string]string{"hint": "run init-db"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [SCHEMA_NOT_INITIALIZED]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("opening %s", "sqlite")

			assert.Empty(t, out.String(), "diagnostics never go to the result stream")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "opening sqlite")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "op", errors.New("x")))))
}

func TestExitError(t *testing.T) {
	cause := &store.Error{Op: "create post", Kind: store.ErrIntegrityViolation}
	err := WrapExitError(ExitFailure, "failed to create post", cause)

	assert.Equal(t, "failed to create post: create post: integrity violation", err.Error())
	assert.ErrorIs(t, err, store.ErrIntegrityViolation)
	assert.Equal(t, facade.CodeIntegrityViolation, errorCode(err))
	assert.Equal(t, "USAGE", errorCode(NewExitError(ExitCommandError, "bad flag")))
}

func TestFailed_MapsInvalidArgumentToCommandError(t *testing.T) {
	invalid := fmt.Errorf("read posts: %w: limit", facade.ErrInvalidArgument)
	assert.Equal(t, ExitCommandError, GetExitCode(failed("failed to read posts", invalid)))

	missing := &store.Error{Op: "read posts", Kind: store.ErrSchemaNotInitialized}
	assert.Equal(t, ExitFailure, GetExitCode(failed("failed to read posts", missing)))
}
