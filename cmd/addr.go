package cmd

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// defaultServeAddr binds the API server to loopback unless told otherwise.
const defaultServeAddr = "127.0.0.1:3400"

// serveAddr resolves the listen address from the arguments after "serve".
// A bare positional address and an --addr flag are both accepted:
//
//	parley serve :8080
//	parley serve --addr 0.0.0.0:8080
func serveAddr(args []string) (string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", defaultServeAddr, "listen address (host:port)")

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		*addr = args[0]
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("parsing serve arguments: %w", err)
	}

	if err := checkListenAddr(*addr); err != nil {
		return "", fmt.Errorf("address %q: %w", *addr, err)
	}
	return *addr, nil
}

// checkListenAddr rejects addresses net.Listen would refuse, before the
// server reports a confusing bind error at startup.
func checkListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("want host:port: %w", err)
	}
	if strings.ContainsAny(host, " \t\r\n") {
		return fmt.Errorf("host %q contains whitespace", host)
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port %q is not a number", port)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range (0 auto-assigns)", n)
	}
	return nil
}
