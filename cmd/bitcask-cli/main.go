package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/0xRadioAc7iv/caskdb/bitcask"
	"github.com/0xRadioAc7iv/caskdb/internal"
	"github.com/0xRadioAc7iv/caskdb/internal/logging"
	"github.com/0xRadioAc7iv/caskdb/internal/utils"
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "Bitcask server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "Bitcask server port")
	timeout := flag.Duration("timeout", internal.DEFAULT_TIMEOUT, "Dial and per-command timeout")
	logLevel := flag.String("log-level", "warn", "Log level for client diagnostics")
	flag.Parse()

	logger := logging.New("caskdb-cli", *logLevel, os.Stderr)

	client, err := bitcask.Connect(
		bitcask.WithHost(*host),
		bitcask.WithPort(*port),
		bitcask.WithTimeout(*timeout),
	)
	if err != nil {
		logger.Error("unable to connect", "host", *host, "port", *port, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Connected to %v:%d\n", *host, *port)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			logger.Debug("input closed", "error", err)
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if strings.EqualFold(line, "exit") {
			return
		}

		cmd, key, value, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		start := time.Now()
		resp, err := client.Execute(cmd, key, value)
		if err != nil {
			logger.Error("command failed", "command", cmd, "error", err)
			os.Exit(1)
		}
		logger.Debug("command completed", "command", cmd, "took", time.Since(start))

		fmt.Println(resp)
	}
}
