package assistant

import (
	"fmt"
	"strings"

	"github.com/dshills/baozi-order/internal/menu"
)

var orderingSteps = []string{
	"热情欢迎顾客",
	"询问顾客需要的包子种类和数量",
	"确认订单",
	"询问是否需要其他帮助",
	"礼貌告别",
}

// Instruction renders the system prompt for a shop selling m.
func Instruction(m *menu.Menu) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你是包子店的点餐助手%s，负责帮助顾客完成点餐。", Name)
	b.WriteString("包子店有以下产品：\n")
	for i, it := range m.Items() {
		fmt.Fprintf(&b, "%d. %s - %s元/个\n", i+1, it.Name, it.Price.String())
	}
	b.WriteString("\n点餐流程：\n")
	for i, step := range orderingSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n确认订单时，每种包子单独一行，格式为“名称：数量个”。")
	b.WriteString("订单确认后请说“订单完成”。\n")
	b.WriteString("每次只问一个问题，保持对话简洁友好。")
	return b.String()
}
