package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompt 交互输入提示
const Prompt = "Enter the hostnames, each on a new line. Press Enter on an empty line to finish:"

// ReadHostnames 向 w 输出提示后逐行读取主机名，遇到空行或 EOF 结束
// 每行去除首尾空白，不做格式校验与去重
func ReadHostnames(r io.Reader, w io.Writer) ([]string, error) {
	if w != nil {
		if _, err := fmt.Fprintln(w, Prompt); err != nil {
			return nil, fmt.Errorf("write prompt: %w", err)
		}
	}

	var hosts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hostnames: %w", err)
	}
	return hosts, nil
}

// ReadHostsFile 从文件读取主机名，每行一个
// 与交互输入不同，空行与 # 注释行被跳过而不是结束读取
func ReadHostsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hosts file: %w", err)
	}
	return hosts, nil
}
