package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sshcollectorpro/apcounter/internal/inventory"
)

// Console 面向操作员的输出，样式随输出端是否为终端自动降级为纯文本
type Console struct {
	w io.Writer

	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	successStyle lipgloss.Style
	hintStyle    lipgloss.Style
	boldStyle    lipgloss.Style
	dimStyle     lipgloss.Style
}

// New 创建写往 w 的控制台
func New(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:            w,
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("#CA8A04")),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("#16A34A")),
		hintStyle:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
		boldStyle:    r.NewStyle().Bold(true),
		dimStyle:     r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	}
}

// Writer 底层输出
func (c *Console) Writer() io.Writer { return c.w }

// DeviceStarted 开始处理一台设备
func (c *Console) DeviceStarted(index, total int, host string) {
	fmt.Fprintf(c.w, "%s %s\n", c.dimStyle.Render(fmt.Sprintf("[%d/%d]", index, total)), host)
}

// DeviceResult 单台设备的状态行
func (c *Console) DeviceResult(row inventory.DeviceResult) {
	model := row.Model
	if model == "" {
		model = "Unknown"
	}
	fmt.Fprintf(c.w, "%s %s (Model: %s): %s - Power Available: %.1fW\n",
		c.successStyle.Render("OK "), row.Switch, model, formatCounts(row.APs), row.PowerAvailable)
}

// DeviceError 连接或命令失败
func (c *Console) DeviceError(host string, err error) {
	fmt.Fprintf(c.w, "%s\n", c.errorStyle.Render(fmt.Sprintf("Error connecting to %s: %v", host, err)))
}

// RawResponse show power inline 未能结构化时原样输出
func (c *Console) RawResponse(host, raw string) {
	fmt.Fprintf(c.w, "%s\n%s\n", c.warnStyle.Render(fmt.Sprintf("Raw response from %s:", host)), raw)
}

// Summary 全部设备处理完成后的统计
func (c *Console) Summary(grandTotal int, totals *inventory.APCounts) {
	fmt.Fprintf(c.w, "\n%s\n", c.boldStyle.Render(fmt.Sprintf("Total AP count across all switches: %d", grandTotal)))
	fmt.Fprintln(c.w, "Total AP count for each type of AP on all switches:")
	for _, key := range totals.Keys() {
		fmt.Fprintf(c.w, "%s: %d\n", key, totals.Get(key))
	}
}

// Exported 报表写出完成
func (c *Console) Exported(path string) {
	fmt.Fprintln(c.w, c.successStyle.Render("Data has been exported to "+path))
}

// Warn 黄色警告
func (c *Console) Warn(msg string) {
	fmt.Fprintln(c.w, c.warnStyle.Render("Warning: "+msg))
}

// Success 绿色提示
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.w, c.successStyle.Render(msg))
}

// Hint 灰色斜体文本
func (c *Console) Hint(s string) string {
	return c.hintStyle.Render(s)
}

// FormatError 多行错误信息，用于致命错误
func (c *Console) FormatError(title, detail, suggestion string) string {
	out := c.errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + c.hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// formatCounts {AP-Z1: 2, AP-Z3: 1}
func formatCounts(c *inventory.APCounts) string {
	keys := c.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, c.Get(k)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
