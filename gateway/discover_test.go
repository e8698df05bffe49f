package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct{ name string }

func (g stubGateway) Name() string { return g.name }

func (g stubGateway) Initiate(context.Context, Request) (Outcome, error) {
	return Succeeded(""), nil
}

type stubCapability struct {
	stubGateway
	available bool
	err       error
}

func (c stubCapability) Available(context.Context) (bool, error) {
	return c.available, c.err
}

func TestParseBinding(t *testing.T) {
	b, err := ParseBinding("")
	require.NoError(t, err)
	assert.Equal(t, BindingAuto, b)

	b, err = ParseBinding(" Native ")
	require.NoError(t, err)
	assert.Equal(t, BindingNative, b)

	_, err = ParseBinding("paypal")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	hosted := stubGateway{name: "hosted"}
	nativeOn := stubCapability{stubGateway: stubGateway{name: "native"}, available: true}
	nativeOff := stubCapability{stubGateway: stubGateway{name: "native"}}
	nativeBroken := stubCapability{stubGateway: stubGateway{name: "native"}, err: errors.New("host gone")}

	tests := []struct {
		name     string
		binding  Binding
		native   Capability
		hosted   Gateway
		expected string
		err      error
	}{
		{"auto prefers native", BindingAuto, nativeOn, hosted, "native", nil},
		{"auto falls back to hosted", BindingAuto, nativeOff, hosted, "hosted", nil},
		{"auto falls back on discovery error", BindingAuto, nativeBroken, hosted, "hosted", nil},
		{"auto without native", BindingAuto, nil, hosted, "hosted", nil},
		{"auto with unavailable native only", BindingAuto, nativeOff, nil, "", ErrCapabilityMissing},
		{"auto with nothing", BindingAuto, nil, nil, "", ErrNotConfigured},
		{"hosted forced", BindingHosted, nativeOn, hosted, "hosted", nil},
		{"hosted missing", BindingHosted, nativeOn, nil, "", ErrNotConfigured},
		{"native forced", BindingNative, nativeOn, hosted, "native", nil},
		{"native unavailable", BindingNative, nativeOff, hosted, "", ErrCapabilityMissing},
		{"native missing", BindingNative, nil, hosted, "", ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := Discover(context.Background(), tt.binding, tt.native, tt.hosted)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, gw.Name())
		})
	}
}
