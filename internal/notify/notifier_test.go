package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
	"dog-scout/internal/recheck"
)

type fakeTelegram struct {
	mu      sync.Mutex
	calls   []string
	chatIDs []string
	fail    bool
}

func (f *fakeTelegram) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		f.mu.Lock()
		f.calls = append(f.calls, method)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"scout","username":"scout_bot"}}`))
		case "sendMessage":
			f.mu.Lock()
			f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
			f.mu.Unlock()
			if f.fail {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"x"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeTelegram) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == "sendMessage" {
			n++
		}
	}
	return n
}

func telegramConfig(srv *httptest.Server) config.Telegram {
	return config.Telegram{
		Enabled:  true,
		BotToken: "123:abc",
		ChatID:   "42",
		APIURL:   srv.URL + "/bot%s/%s",
	}
}

func TestTelegramNotifier_DryRunDoesNoIO(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	n := NewTelegramNotifier(telegramConfig(srv), true, time.Second, nil)
	res := n.Send(context.Background(), "hello")

	assert.Equal(t, Result{Sent: false, Status: domain.DeliveryDryRun}, res)
	assert.Empty(t, fake.calls)
}

func TestTelegramNotifier_Disabled(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	cfg := telegramConfig(srv)
	cfg.Enabled = false
	res := NewTelegramNotifier(cfg, false, time.Second, nil).Send(context.Background(), "hello")

	assert.Equal(t, domain.DeliveryDisabled, res.Status)
	assert.False(t, res.Sent)
	assert.Empty(t, fake.calls)
}

func TestTelegramNotifier_ConfigError(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		chatID string
	}{
		{"missing token", "", "42"},
		{"missing chat", "123:abc", ""},
		{"non numeric chat", "123:abc", "@channel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Telegram{Enabled: true, BotToken: tt.token, ChatID: tt.chatID}
			res := NewTelegramNotifier(cfg, false, time.Second, nil).Send(context.Background(), "hello")
			assert.Equal(t, domain.DeliveryConfigError, res.Status)
			assert.False(t, res.Sent)
		})
	}
}

func TestTelegramNotifier_Sent(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	n := NewTelegramNotifier(telegramConfig(srv), false, time.Second, nil).WithHTTPClient(srv.Client())

	res := n.Send(context.Background(), "first")
	assert.Equal(t, Result{Sent: true, Status: domain.DeliverySent}, res)
	res = n.Send(context.Background(), "second")
	assert.True(t, res.Sent)

	assert.Equal(t, 2, fake.sendCount())
	assert.Equal(t, []string{"42", "42"}, fake.chatIDs)
	assert.Equal(t, "getMe", fake.calls[0], "bot is built once on first send")
	assert.Len(t, fake.calls, 3)
}

func TestTelegramNotifier_SendFailed(t *testing.T) {
	fake := &fakeTelegram{fail: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	res := NewTelegramNotifier(telegramConfig(srv), false, time.Second, nil).WithHTTPClient(srv.Client()).
		Send(context.Background(), "hello")

	assert.Equal(t, Result{Sent: false, Status: domain.DeliveryFailed}, res)
}

func TestTelegramNotifier_UnreachableIsSendFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := telegramConfig(srv)
	srv.Close()

	res := NewTelegramNotifier(cfg, false, time.Second, nil).Send(context.Background(), "hello")
	assert.Equal(t, domain.DeliveryFailed, res.Status)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa\nbbbb\ncccc", 9)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	parts = splitMessage("abcdefghijkl", 5)
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, parts)
}

type recordingNotifier struct {
	status   string
	messages []string
}

func (r *recordingNotifier) Send(_ context.Context, message string) Result {
	r.messages = append(r.messages, message)
	return Result{Sent: r.status == domain.DeliverySent, Status: r.status}
}

func TestFanout_ReturnsPrimaryResult(t *testing.T) {
	primary := &recordingNotifier{status: domain.DeliveryDryRun}
	mirror := &recordingNotifier{status: domain.DeliverySent}

	res := NewFanout(primary, nil, mirror).Send(context.Background(), "msg")

	assert.Equal(t, domain.DeliveryDryRun, res.Status)
	assert.Equal(t, []string{"msg"}, primary.messages)
	assert.Equal(t, []string{"msg"}, mirror.messages)
}

func TestHub_BroadcastsToFeedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/feed", hub.ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var hello FeedMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	assert.Equal(t, 1, hub.Clients())

	res := hub.Send(ctx, "🎯 alert text")
	assert.True(t, res.Sent)

	var got FeedMessage
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "alert", got.Type)
	assert.Equal(t, "🎯 alert text", got.Text)
}

func TestHub_SendWithoutRunnerDropsWhenFull(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, hub.Send(context.Background(), "x").Sent)
	}
	res := hub.Send(context.Background(), "overflow")
	assert.Equal(t, domain.DeliveryFailed, res.Status)
}

func sampleCandidate() domain.Candidate {
	h1 := 12.5
	return domain.Candidate{
		Pair: domain.PairSnapshot{
			ChainID:          "base",
			PairAddress:      "0xpair",
			DexID:            "uniswap",
			BaseTokenAddress: "0xtoken",
			BaseTokenSymbol:  "DOGA",
			LiquidityUSD:     1234567.6,
			VolumeH24:        999.4,
			TxnsH1Buys:       30,
			TxnsH1Sells:      12,
			PriceChangeH1:    &h1,
		},
		Score: domain.ScoreBreakdown{FinalScore: 88.5, RuleScore: 90},
	}
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert(1, sampleCandidate())
	want := strings.Join([]string{
		"🎯 Dog Scout Top1 | score 88.50/100",
		"token: DOGA (0xtoken)",
		"pair: 0xpair | DEX: uniswap",
		"liquidity: $1,234,568 | 1h txns: 42",
		"1h move: 12.50% | 24h volume: $999",
		"initial -> 5m -> 15m: 88.50 -> -- -> --",
		"risk flags: none",
		"action: high priority: add to watchlist, wait for pullback or volume confirmation",
		"link: https://dexscreener.com/base/0xpair",
	}, "\n")
	assert.Equal(t, want, msg)
}

func TestFormatAlert_MissingMoveAndFlags(t *testing.T) {
	c := sampleCandidate()
	c.Pair.PriceChangeH1 = nil
	c.Risk.Flags = []string{"mintable", "proxy"}
	c.Score.FinalScore = 50

	msg := FormatAlert(3, c)
	assert.Contains(t, msg, "1h move: n/a")
	assert.Contains(t, msg, "risk flags: mintable, proxy")
	assert.Contains(t, msg, "low priority")
}

func TestFormatRecheck(t *testing.T) {
	c := sampleCandidate()
	c.Score.FinalScore = 91
	tl := domain.ScoreTimeline{Initial: 88.5}.WithScore(5, 91)
	prev := 88.5

	msg := FormatRecheck(c, domain.RecheckImproving, tl, recheck.ComputeDeltas(88.5, &prev, 91))
	want := strings.Join([]string{
		"🔁 Recheck | DOGA | IMPROVING",
		"score: 91.00/100 (vs initial +2.50, vs previous +2.50)",
		"initial -> 5m -> 15m: 88.50 -> 91.00 -> --",
		"risk flags: none",
		"link: https://dexscreener.com/base/0xpair",
	}, "\n")
	assert.Equal(t, want, msg)
}

func TestActionHint_Boundaries(t *testing.T) {
	assert.Contains(t, ActionHint(85), "high")
	assert.Contains(t, ActionHint(84.99), "medium")
	assert.Contains(t, ActionHint(65), "medium")
	assert.Contains(t, ActionHint(64.99), "low")
}

func TestUSD(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		999.5:     "1,000",
		1000:      "1,000",
		-25000.2:  "-25,000",
		123456789: "123,456,789",
	}
	for in, want := range tests {
		assert.Equal(t, want, usd(in), "%v", in)
	}
}

// stalledTelegram accepts connections and never answers until released.
func stalledTelegram(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestTelegramNotifier_StalledEndpointHitsClientTimeout(t *testing.T) {
	srv := stalledTelegram(t)
	n := NewTelegramNotifier(telegramConfig(srv), false, 200*time.Millisecond, nil)

	start := time.Now()
	res := n.Send(context.Background(), "hello")

	assert.Equal(t, Result{Sent: false, Status: domain.DeliveryFailed}, res)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTelegramNotifier_SendHonoursContextDeadline(t *testing.T) {
	srv := stalledTelegram(t)
	n := NewTelegramNotifier(telegramConfig(srv), false, 30*time.Second, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := n.Send(ctx, "hello")

	assert.Equal(t, domain.DeliveryFailed, res.Status)
	assert.False(t, res.Sent)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewTelegramNotifier_DefaultTimeout(t *testing.T) {
	n := NewTelegramNotifier(config.Telegram{}, false, 0, nil)
	assert.Equal(t, DefaultSendTimeout, n.client.Timeout)

	n = NewTelegramNotifier(config.Telegram{}, false, 3*time.Second, nil)
	assert.Equal(t, 3*time.Second, n.client.Timeout)
}
