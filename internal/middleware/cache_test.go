package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 64}

	_, err := cw.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, `{"ok":true}`, cw.buf.String())
	assert.False(t, cw.overflowed())
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	body := `{"logo":"AAAAAAAAAAAAAAAAAAAAAAAAAA"}`
	_, err := cw.Write([]byte(body))
	require.NoError(t, err)

	// The client always receives the full body.
	assert.Equal(t, body, rec.Body.String())
	// The capture holds only a prefix and must be flagged as incomplete.
	assert.Equal(t, int64(10), int64(cw.buf.Len()))
	assert.True(t, cw.overflowed())
}

func TestCaptureWriterOverflowAcrossWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	// The limit is hit exactly, then one more byte arrives.
	_, err := cw.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.False(t, cw.overflowed())

	_, err = cw.Write([]byte("x"))
	require.NoError(t, err)

	assert.Equal(t, "0123456789x", rec.Body.String())
	assert.Equal(t, int64(10), int64(cw.buf.Len()))
	assert.True(t, cw.overflowed())
}

func TestCaptureWriterNoLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := cw.Write([]byte("anything goes"))
	require.NoError(t, err)
	assert.Equal(t, "anything goes", cw.buf.String())
	assert.False(t, cw.overflowed())
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"restaurantName":"alice"}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)

	payload, err := encodePayload(http.StatusOK, http.Header{}, []byte("body"))
	require.NoError(t, err)
	_, _, _, ok = decodePayload(payload[:6])
	assert.False(t, ok)
}
