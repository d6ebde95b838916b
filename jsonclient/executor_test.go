package jsonclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/beacon-go/fault"
)

func TestExecute_SuccessParsesJSON(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubResponse(200, `{"number":42,"hash":"0xabc"}`)
	executor := New(WithTransport(mock))

	payload, err := executor.Execute(
		context.Background(),
		NewConnection("https://api.example.com/head"),
		nil,
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"number": float64(42), "hash": "0xabc"}, payload)
	assert.Equal(t, 1, mock.CallCount())
}

func TestExecute_InvalidDescriptorNeverHitsTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		conn     *Connection
		wantKind fault.Kind
	}{
		{
			name:     "given_missing_url,_then_invalid_argument_before_transport",
			conn:     &Connection{},
			wantKind: fault.InvalidArgument,
		},
		{
			name: "given_insecure_credentials,_then_security_error_before_transport",
			conn: &Connection{
				URL:      "http://api.example.com",
				User:     "alice",
				Password: "s3cret",
			},
			wantKind: fault.Security,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			executor := New(WithTransport(mock))

			_, err := executor.Execute(context.Background(), tt.conn, nil, nil)

			require.Error(t, err)
			assert.True(t, fault.IsKind(err, tt.wantKind))
			assert.Zero(t, mock.CallCount())
		})
	}
}

func TestExecute_BadStatus(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubResponse(500, `internal error`)
	executor := New(WithTransport(mock))

	_, err := executor.Execute(
		context.Background(),
		NewConnection("https://api.example.com"),
		nil,
		nil,
	)

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Server))

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 500, fe.Field("status"))
	assert.Equal(t, "internal error", fe.Field("body"))
	assert.Equal(t, "https://api.example.com", fe.Field("url"))
}

func TestExecute_InvalidJSON(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubResponse(200, `{"truncated":`)
	executor := New(WithTransport(mock))

	_, err := executor.Execute(
		context.Background(),
		NewConnection("https://api.example.com"),
		nil,
		nil,
	)

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Server))

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	// Parse failures carry a cause; status failures do not.
	assert.Error(t, fe.Unwrap())
	assert.Nil(t, fe.Field("status"))
}

func TestExecute_NotModified(t *testing.T) {
	t.Parallel()

	t.Run("given_conditional_request_and_304,_then_no_update_sentinel", func(t *testing.T) {
		t.Parallel()

		mock := NewMockTransport().StubResponse(304, ``)
		executor := New(WithTransport(mock))

		payload, err := executor.Execute(context.Background(), &Connection{
			URL:     "https://api.example.com",
			Headers: map[string]any{"If-None-Match": `"etag"`},
		}, nil, nil)

		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("given_unconditional_request_and_304,_then_server_error", func(t *testing.T) {
		t.Parallel()

		mock := NewMockTransport().StubResponse(304, ``)
		executor := New(WithTransport(mock))

		_, err := executor.Execute(
			context.Background(),
			NewConnection("https://api.example.com"),
			nil,
			nil,
		)

		require.Error(t, err)
		assert.True(t, fault.IsKind(err, fault.Server))
	})
}

func TestExecute_Transform(t *testing.T) {
	t.Parallel()

	t.Run("given_transform,_then_result_replaces_payload", func(t *testing.T) {
		t.Parallel()

		mock := NewMockTransport().StubResponseWithHeaders(200, `{"result":"0x10"}`,
			map[string]string{"etag": `"v2"`})
		executor := New(WithTransport(mock))

		payload, err := executor.Execute(
			context.Background(),
			NewConnection("https://api.example.com"),
			nil,
			func(payload any, resp *ResponseEnvelope) (any, error) {
				assert.Equal(t, 200, resp.StatusCode)
				assert.Equal(t, `"v2"`, resp.Headers["etag"])
				return payload.(map[string]any)["result"], nil
			},
		)

		require.NoError(t, err)
		assert.Equal(t, "0x10", payload)
	})

	t.Run("given_failing_transform,_then_server_error_with_payload", func(t *testing.T) {
		t.Parallel()

		mock := NewMockTransport().StubResponse(200, `"pending"`)
		executor := New(WithTransport(mock))

		boom := errors.New("unexpected shape")
		_, err := executor.Execute(
			context.Background(),
			NewConnection("https://api.example.com"),
			nil,
			func(any, *ResponseEnvelope) (any, error) {
				return nil, boom
			},
		)

		require.Error(t, err)
		assert.True(t, fault.IsKind(err, fault.Server))
		require.ErrorIs(t, err, boom)

		var fe *fault.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "pending", fe.Field("body"))
	})
}

func TestExecute_Timeout(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubDelay(5 * time.Second)
	executor := New(WithTransport(mock))

	start := time.Now()
	_, err := executor.Execute(context.Background(), &Connection{
		URL:     "https://api.example.com",
		Timeout: 100 * time.Millisecond,
	}, nil, nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Timeout))
	assert.Less(t, elapsed, 2*time.Second)

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "100ms", fe.Field("timeout"))

	// The hung transport's eventual completion has no observable effect:
	// the call settled exactly once and the mock saw exactly one request.
	assert.Equal(t, 1, mock.CallCount())
}

func TestExecute_TransportErrorPassesThrough(t *testing.T) {
	t.Parallel()

	netErr := errors.New("connection refused")
	mock := NewMockTransport().StubError(netErr)
	executor := New(WithTransport(mock))

	_, err := executor.Execute(
		context.Background(),
		NewConnection("https://api.example.com"),
		nil,
		nil,
	)

	require.ErrorIs(t, err, netErr)
	assert.Equal(t, fault.Kind(""), fault.KindOf(err))
}

func TestExecute_CallerCancellation(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubDelay(5 * time.Second)
	executor := New(WithTransport(mock))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := executor.Execute(ctx, NewConnection("https://api.example.com"), nil, nil)

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Cancelled))
}

func TestExecute_PostBodySentVerbatim(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport().StubResponse(200, `null`)
	executor := New(WithTransport(mock))

	body := []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","id":1}`)
	payload, err := executor.Execute(
		context.Background(),
		NewConnection("https://api.example.com"),
		body,
		nil,
	)

	require.NoError(t, err)
	assert.Nil(t, payload)

	sent := mock.LastRequest()
	require.NotNil(t, sent)
	assert.Equal(t, "POST", sent.Method)
	assert.Equal(t, body, sent.Body)
	assert.Equal(t, "application/json", sent.Headers["content-type"].Value)
}
