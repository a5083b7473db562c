// logging.go

package logging

import (
	"fmt"
	"os"
	"strings"

	gologging "github.com/op/go-logging"
)

// Log 全局日志实例
var Log = gologging.MustGetLogger("borderbounce")

var format = gologging.MustStringFormatter(
	`%{time:15:04:05.000} %{shortfunc} ▶ %{level:.4s} %{message}`,
)

// Init 初始化日志框架并设置日志级别
func Init(level string) error {
	if level == "" {
		level = "info"
	}

	lvl, err := gologging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", level, err)
	}

	backend := gologging.NewLogBackend(os.Stderr, "", 0)
	formatted := gologging.NewBackendFormatter(backend, format)
	leveled := gologging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	gologging.SetBackend(leveled)

	return nil
}
