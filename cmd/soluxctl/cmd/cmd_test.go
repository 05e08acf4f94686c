package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--provider-url", offlineURL(), "--fallback-delay", "0s", "--log-level", "error"))
	err := root.Execute()
	return out.Bytes(), err
}

func TestAccountPrintsSeededSummary(t *testing.T) {
	raw, err := run(t, "account")
	require.NoError(t, err)

	var out struct {
		Summary struct {
			CreditUsed string `json:"credit_used"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "1250.45", out.Summary.CreditUsed)
}

func TestDepositValidatesAsset(t *testing.T) {
	_, err := run(t, "deposit", "--asset", "DOGE", "--amount", "1")
	assert.Error(t, err)

	raw, err := run(t, "deposit", "--asset", "sol", "--amount", "2")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"asset": "SOL"`)
}

func TestSwipeFrozenDeclines(t *testing.T) {
	raw, err := run(t, "swipe", "--freeze", "--count", "2", "--merchant", "Uber", "--amount", "15")
	require.NoError(t, err)

	var out struct {
		Decisions []struct {
			Approved bool   `json:"approved"`
			Reason   string `json:"reason"`
		} `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Decisions, 2)
	for _, d := range out.Decisions {
		assert.False(t, d.Approved)
		assert.Equal(t, "card frozen", d.Reason)
	}
}

func TestEnrollIssuesSimulatedCard(t *testing.T) {
	raw, err := run(t, "enroll",
		"--first-name", "Ada", "--last-name", "Lovelace", "--email", "ada@example.com",
		"--dob", "1990-12-10", "--address1", "1 Main St", "--city", "New York",
		"--state", "NY", "--postal-code", "10001", "--ssn-last-four", "1234", "--swipe")
	require.NoError(t, err)

	var out struct {
		Enrollment struct {
			State string `json:"state"`
			Card  struct {
				Source string `json:"source"`
			} `json:"card"`
		} `json:"enrollment"`
		Swipe struct {
			Approved bool `json:"approved"`
		} `json:"swipe"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "success", out.Enrollment.State)
	assert.Equal(t, "simulated", out.Enrollment.Card.Source)
	assert.True(t, out.Swipe.Approved)
}

func TestEnrollRejectsInvalidProfile(t *testing.T) {
	_, err := run(t, "enroll", "--first-name", "Ada", "--last-name", "L", "--email", "not-an-email")
	assert.Error(t, err)
}
