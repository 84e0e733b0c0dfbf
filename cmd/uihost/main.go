// uihost 演示程序：终端窗口作为 UI 线程，与宿主生命周期关联
package main

import (
	"fmt"
	"os"

	"github.com/gocrud/uihost/cmd/uihost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
