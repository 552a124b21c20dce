package qr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSignerRoundTrip(t *testing.T) {
	signer := NewPayloadSigner("secret", time.Minute)

	payload, err := signer.Sign("tk-1")
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	ticketID, err := signer.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, "tk-1", ticketID)
}

func TestPayloadSignerRejections(t *testing.T) {
	signer := NewPayloadSigner("secret", time.Minute)

	forged, err := NewPayloadSigner("other-secret", time.Minute).Sign("tk-1")
	require.NoError(t, err)

	expired, err := NewPayloadSigner("secret", -time.Minute).Sign("tk-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "garbage", payload: "definitely-not-a-token", wantErr: ErrPayloadInvalid},
		{name: "empty", payload: "", wantErr: ErrPayloadInvalid},
		{name: "wrong secret", payload: forged, wantErr: ErrPayloadInvalid},
		{name: "expired", payload: expired, wantErr: ErrPayloadExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Parse(tt.payload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncodePNG(t *testing.T) {
	png, err := EncodePNG("some-signed-payload", 128)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
