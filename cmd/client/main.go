package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/X-Magic-X/console-network-chat/pkg/version"
	"github.com/X-Magic-X/console-network-chat/pkg/wire"
)

// Console chat client. Lines typed on stdin go to the server verbatim;
// frames from the server print to stdout, with the control replies
// translated into something readable.
func main() {
	addr := flag.String("addr", "localhost:8189", "Chat server address")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := wire.ReadMessage(conn)
			if err != nil {
				return
			}
			if render(msg) {
				return
			}
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := wire.WriteMessage(conn, line); err != nil {
				return
			}
		}
	}()

	<-done
}

// render prints one server frame and reports whether the session is over.
func render(msg string) bool {
	verb, rest, _ := strings.Cut(msg, " ")
	switch verb {
	case "/authok":
		fmt.Println("authenticated as " + rest)
	case "/regok":
		fmt.Println("registered as " + rest)
	case "/nickchanged":
		fmt.Println("nickname is now " + rest)
	case "/exitok":
		fmt.Println("disconnected")
		return true
	case "/kickok":
		fmt.Println("disconnected by server: " + rest)
		return true
	default:
		fmt.Println(msg)
	}
	return false
}
