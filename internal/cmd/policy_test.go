package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zonedns/zoned/internal/semcheck"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		name    string
		mode    string
		want    semcheck.Option
		wantErr bool
	}{{
		name: "mandatory",
		mode: "mandatory",
		want: semcheck.OptionMandatoryOnly,
	}, {
		name: "full",
		mode: "full",
		want: semcheck.OptionFull,
	}, {
		name: "dnssec",
		mode: "dnssec",
		want: semcheck.OptionDNSSEC,
	}, {
		name: "auto",
		mode: "auto",
		want: semcheck.OptionAutoDNSSEC,
	}, {
		name: "empty",
		mode: "",
		want: semcheck.OptionAutoDNSSEC,
	}, {
		name:    "bad",
		mode:    "everything",
		wantErr: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMode(tc.mode)
			if tc.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadPolicy(t *testing.T) {
	const policyText = `zones:
  - file: example.com.zone
    origin: example.com.
    mode: dnssec
  - file: example.org.zone
    origin: example.org.
`

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(policyText), 0o644))

	policy, err := readPolicy(path)
	require.NoError(t, err)

	require.Len(t, policy.Zones, 2)
	assert.Equal(t, "example.com.", policy.Zones[0].Origin)
	assert.Equal(t, "dnssec", policy.Zones[0].Mode)
	assert.Equal(t, "", policy.Zones[1].Mode)
}

func TestReadPolicy_invalid(t *testing.T) {
	const policyText = `zones:
  - file: example.com.zone
    origin: example.com.
    mode: everything
`

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(policyText), 0o644))

	_, err := readPolicy(path)
	assert.Error(t, err)
}
