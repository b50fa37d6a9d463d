package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const getMeBody = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"news","username":"news_bot"}}`

type fakeTelegram struct {
	getMeCalls int32
	chatIDs    []string
	texts      []string
	fail       string
	hold       chan struct{}
	cancelled  int32
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			atomic.AddInt32(&f.getMeCalls, 1)
			_, _ = w.Write([]byte(getMeBody))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.hold != nil {
				select {
				case <-f.hold:
				case <-r.Context().Done():
					atomic.AddInt32(&f.cancelled, 1)
					return
				}
			}
			require.NoError(t, r.ParseForm())
			f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
			f.texts = append(f.texts, r.FormValue("text"))
			if f.fail != "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(f.fail))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42,"date":0,"chat":{"id":123,"type":"private"},"text":"x"}}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, chatID string, fake *fakeTelegram) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client := NewClient("TOKEN", chatID, zerolog.Nop())
	client.endpoint = srv.URL + "/bot%s/%s"
	return client
}

func TestSendText(t *testing.T) {
	fake := &fakeTelegram{}
	client := newTestClient(t, "123", fake)

	id, err := client.SendText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = client.SendText(context.Background(), "again")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.getMeCalls))
	assert.Equal(t, []string{"123", "123"}, fake.chatIDs)
	assert.Equal(t, []string{"hello", "again"}, fake.texts)
}

func TestSendText_ChannelUsername(t *testing.T) {
	fake := &fakeTelegram{}
	client := newTestClient(t, "market_alerts", fake)

	_, err := client.SendText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"@market_alerts"}, fake.chatIDs)
}

func TestSendText_Rejected(t *testing.T) {
	fake := &fakeTelegram{fail: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`}
	client := newTestClient(t, "123", fake)

	_, err := client.SendText(context.Background(), "hello")
	require.Error(t, err)

	var deliveryErr *domain.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, Channel, deliveryErr.Channel)
	assert.Equal(t, 400, deliveryErr.Status)
	assert.Equal(t, "Bad Request: chat not found", deliveryErr.Message)
	assert.True(t, errors.Is(err, domain.ErrDelivery))
}

func TestSendText_SessionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	client := NewClient("BAD", "123", zerolog.Nop())
	client.endpoint = srv.URL + "/bot%s/%s"

	_, err := client.SendText(context.Background(), "hello")
	var deliveryErr *domain.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, 401, deliveryErr.Status)
	assert.Nil(t, client.bot)
}

func TestSendText_EmptyChatID(t *testing.T) {
	fake := &fakeTelegram{}
	client := newTestClient(t, " ", fake)

	_, err := client.SendText(context.Background(), "hello")
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	assert.Empty(t, fake.texts)
}

func TestSendText_ContextCancelled(t *testing.T) {
	fake := &fakeTelegram{}
	client := newTestClient(t, "123", fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SendText(ctx, "hello")
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.getMeCalls))
}

func TestSendText_DeadlineAbortsInFlightRequest(t *testing.T) {
	fake := &fakeTelegram{hold: make(chan struct{})}
	client := newTestClient(t, "123", fake)
	t.Cleanup(func() { close(fake.hold) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.SendText(ctx, "late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fake.cancelled) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, fake.texts)
}
