package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/dialogue"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/session"
	"github.com/dshills/baozi-order/internal/storage"
)

// echoClient greets, then repeats the customer's line as its reply.
type echoClient struct{}

func (echoClient) Complete(ctx context.Context, turns []dialogue.Turn, params completion.Params) (string, error) {
	last := turns[len(turns)-1].Text
	if last == assistant.GreetingPrompt {
		return "欢迎光临小陈包子铺！", nil
	}
	return last, nil
}

func (echoClient) Provider() string { return "echo" }
func (echoClient) Close() error     { return nil }

func runConsole(t *testing.T, input string, archiver session.Archiver) string {
	t.Helper()

	reg, err := session.NewRegistry(session.Config{
		Client:   echoClient{},
		Menu:     menu.Default(),
		Archiver: archiver,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	console := NewConsole(reg, strings.NewReader(input), &out)
	require.NoError(t, console.Run(context.Background()))
	assert.Equal(t, 0, reg.Len(), "session is closed when the console exits")
	return out.String()
}

func TestConsoleBannerAndGreeting(t *testing.T) {
	out := runConsole(t, "退出\n", nil)

	assert.Contains(t, out, "欢迎使用小陈同学包子点餐系统")
	assert.Contains(t, out, "输入 '重置' 重新开始点餐")
	assert.Contains(t, out, "小陈同学: 欢迎光临小陈包子铺！")
	assert.True(t, strings.HasSuffix(out, "小陈同学: 感谢光临，期待下次为您服务！\n"))
}

func TestConsoleQuitWords(t *testing.T) {
	for _, word := range []string{"退出", "exit", "QUIT", "  quit  "} {
		t.Run(word, func(t *testing.T) {
			out := runConsole(t, word+"\n", nil)
			assert.Contains(t, out, farewellQuit)
		})
	}
}

func TestConsoleSummaryAndReset(t *testing.T) {
	input := strings.Join([]string{
		"",
		"订单",
		"鲜肉包：2个",
		"订单",
		"重置",
		"订单",
		"exit",
	}, "\n") + "\n"

	out := runConsole(t, input, nil)

	assert.Equal(t, 2, strings.Count(out, "\n暂无订单信息\n"))
	assert.Contains(t, out, "【订单摘要】\n鲜肉包: 2个, 6.0元\n\n总计: 6.0元")
	assert.Contains(t, out, resetNotice)
}

func TestConsoleCompletionDeclined(t *testing.T) {
	out := runConsole(t, "牛肉包：1个\n订单完成\n否\n", nil)

	assert.Contains(t, out, newOrderPrompt)
	assert.True(t, strings.HasSuffix(out, "小陈同学: 感谢光临，再见！\n"))
}

func TestConsoleCompletionAcceptedArchivesEachOrder(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	input := "鲜肉包：1个\n订单完成\nY\n豆沙包：2个\n订单完成\nno\n"
	out := runConsole(t, input, store)

	assert.Contains(t, out, newOrderNotice)
	assert.Equal(t, 2, strings.Count(out, newOrderPrompt))

	orders, err := store.ListOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	totals := []string{orders[0].Total.String(), orders[1].Total.String()}
	assert.ElementsMatch(t, []string{"3", "5"}, totals)
}

func TestConsoleEndOfInput(t *testing.T) {
	out := runConsole(t, "鲜肉包：1个\n", nil)
	assert.Contains(t, out, "小陈同学: 鲜肉包：1个")
	assert.NotContains(t, out, farewellQuit)
}

func TestServeHTTPShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, addr, http.NotFoundHandler(), zap.NewNop())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewLoggerPerMode(t *testing.T) {
	tests := []struct {
		mode      string
		level     string
		infoShown bool
		warnShown bool
	}{
		{modeChat, "", false, true},
		{modeChat, "debug", true, true},
		{modeMCP, "", true, true},
		{modeHTTP, "", true, true},
		{modeHTTP, "error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.mode, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.infoShown, logger.Core().Enabled(zapcore.InfoLevel))
			assert.Equal(t, tt.warnShown, logger.Core().Enabled(zapcore.WarnLevel))
		})
	}

	_, err := newLogger(modeChat, "chatty")
	assert.Error(t, err)
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	assert.Contains(t, out.String(), "Version: dev")
	assert.Contains(t, out.String(), "SQLite Driver: "+storage.DriverName)
}
