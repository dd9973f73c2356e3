package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/Tyrowin/roomchat/internal/chatclient"
)

const (
	quitCommand = ":q!"
	whoCommand  = ":who"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", envOr("CHAT_SERVER_URL", "ws://localhost:8080/ws"), "relay websocket URL")
	origin := flag.String("origin", envOr("CHAT_ORIGIN", "http://localhost:8080"), "Origin header sent on join")
	nickname := flag.String("nickname", "", "nickname to join with")
	room := flag.String("room", "", "room to join")
	flag.Parse()

	if err := run(*serverURL, *origin, *nickname, *room, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(serverURL, origin, nickname, room string, in io.Reader, out io.Writer) error {
	input := bufio.NewScanner(in)
	fmt.Fprintln(out, "Welcome to the room chat...")

	if nickname == "" {
		nickname = prompt(input, out, "Enter your nickname: ")
	}
	if room == "" {
		room = prompt(input, out, "Enter the room name: ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := chatclient.Dial(ctx, serverURL, origin, nickname, room, out)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	received := make(chan error, 1)
	go func() { received <- client.Receive() }()

	fmt.Fprintf(out, "Joined. Type '%s' to close the connection, '%s' to list the room.\n", quitCommand, whoCommand)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for input.Scan() {
			lines <- input.Text()
		}
	}()

	for {
		select {
		case err := <-received:
			return describeClose(err)
		case line, ok := <-lines:
			if !ok || strings.EqualFold(strings.TrimSpace(line), quitCommand) {
				return nil
			}
			if err := handleLine(client, serverURL, room, line, out); err != nil {
				return err
			}
		}
	}
}

func prompt(input *bufio.Scanner, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	if input.Scan() {
		return strings.TrimSpace(input.Text())
	}
	return ""
}

func handleLine(client *chatclient.Client, serverURL, room, line string, out io.Writer) error {
	if strings.EqualFold(strings.TrimSpace(line), whoCommand) {
		base, err := chatclient.HTTPBase(serverURL)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ids, err := chatclient.Who(ctx, http.DefaultClient, base, room)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return nil
		}
		chatclient.RenderPresence(out, ids)
		return nil
	}

	if strings.TrimSpace(line) == "" {
		return nil
	}
	if err := client.Send(line); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, client.Echo(line))
	return err
}

// describeClose turns a server close frame into a readable error.
func describeClose(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("disconnected: %s", closeErr.Text)
	}
	return err
}
