package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/session"
)

// Console replies and prompts
const (
	farewellQuit   = "感谢光临，期待下次为您服务！"
	farewellDone   = "感谢光临，再见！"
	resetNotice    = "已重置订单，我们可以重新开始点餐！"
	newOrderNotice = "已开始新订单，请问您需要什么？"
	newOrderPrompt = "是否开始新订单? (是/否): "
	userPrompt     = "您: "
)

var (
	quitWords = []string{"退出", "exit", "quit"}
	yesWords  = []string{"是", "yes", "y"}
)

const (
	cmdReset   = "重置"
	cmdSummary = "订单"
)

// Console is the interactive terminal front end. It drives a single session
// of the registry so completed orders are archived like any other.
type Console struct {
	sessions *session.Registry
	in       *bufio.Scanner
	out      io.Writer
	pause    time.Duration // after each reply
}

// NewConsole creates a console reading customer lines from in
func NewConsole(sessions *session.Registry, in io.Reader, out io.Writer) *Console {
	return &Console{
		sessions: sessions,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run greets the customer and loops until they quit or input ends
func (c *Console) Run(ctx context.Context) error {
	c.banner()

	sess, greeting := c.sessions.Create(ctx)
	defer c.sessions.Close(sess.ID)
	c.say("%s: %s\n", assistant.Name, greeting.Text)

	for {
		line, ok := c.prompt(userPrompt)
		if !ok {
			return c.in.Err()
		}
		if line == "" {
			continue
		}

		switch {
		case slices.Contains(quitWords, strings.ToLower(line)):
			c.say("\n%s: %s\n", assistant.Name, farewellQuit)
			return nil
		case line == cmdReset:
			if err := c.sessions.Reset(sess.ID); err != nil {
				return err
			}
			c.say("\n%s: %s\n", assistant.Name, resetNotice)
			continue
		case line == cmdSummary:
			summary, err := c.sessions.Summary(sess.ID)
			if err != nil {
				return err
			}
			c.say("\n%s\n\n", summary)
			continue
		}

		reply, err := c.sessions.Submit(ctx, sess.ID, line)
		if err != nil {
			return err
		}
		c.say("\n%s: %s\n", assistant.Name, reply.Text)

		if c.pause > 0 {
			select {
			case <-time.After(c.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !reply.Order.Completed {
			continue
		}

		choice, _ := c.prompt("\n" + newOrderPrompt)
		if !slices.Contains(yesWords, strings.ToLower(choice)) {
			c.say("\n%s: %s\n", assistant.Name, farewellDone)
			return nil
		}
		if err := c.sessions.Reset(sess.ID); err != nil {
			return err
		}
		c.say("\n%s: %s\n", assistant.Name, newOrderNotice)
	}
}

func (c *Console) banner() {
	rule := strings.Repeat("=", 50)
	c.say("%s\n", rule)
	c.say("欢迎使用%s包子点餐系统\n", assistant.Name)
	c.say("%s\n", rule)
	c.say("本系统由DeepSeek AI驱动\n")
	c.say("输入 '%s' 结束点餐\n", quitWords[0])
	c.say("输入 '%s' 重新开始点餐\n", cmdReset)
	c.say("输入 '%s' 查看当前订单\n", cmdSummary)
	c.say("%s\n", rule)
	c.say("\n%s正在等待为您服务...\n\n", assistant.Name)
}

// prompt writes p and reads one trimmed line; ok is false at end of input
func (c *Console) prompt(p string) (string, bool) {
	c.say("%s", p)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) say(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
