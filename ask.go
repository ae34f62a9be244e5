package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"tutor-sketchpad/internal/event"
	"tutor-sketchpad/internal/wire"
)

const defaultAskURL = "ws://localhost:8000/ws"

func newAskCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a running sketchpad server one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ask(cmd.Context(), cmd.OutOrStdout(), url, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultAskURL, "websocket endpoint of the server")
	return cmd
}

// answerFrame is the union of every outbound frame the server sends.
type answerFrame struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Cmd     string          `json:"cmd"`
	Args    json.RawMessage `json:"args"`
}

type askStyles struct {
	user   lipgloss.Style
	draw   lipgloss.Style
	answer lipgloss.Style
	failed lipgloss.Style
}

func newAskStyles(out io.Writer) askStyles {
	r := lipgloss.NewRenderer(out)
	return askStyles{
		user:   r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		draw:   r.NewStyle().Foreground(lipgloss.Color("8")),
		answer: r.NewStyle().Bold(true),
		failed: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// ask sends question and prints frames until the turn's final message.
func ask(ctx context.Context, out io.Writer, url, question string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(wire.Inbound{Type: wire.TypeUserMessage, Text: &question}); err != nil {
		return fmt.Errorf("send question: %w", err)
	}

	styles := newAskStyles(out)
	midLine := false
	endLine := func() {
		if midLine {
			_, _ = fmt.Fprintln(out)
			midLine = false
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read answer: %w", err)
		}
		var frame answerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}

		switch frame.Type {
		case wire.TypeChatMessage:
			endLine()
			if frame.From == event.FromUser {
				_, _ = fmt.Fprintln(out, styles.user.Render("you:")+" "+frame.Message)
				continue
			}
			_, _ = fmt.Fprintln(out, styles.answer.Render(frame.Message))
			return nil
		case wire.TypeChatToken:
			_, _ = fmt.Fprint(out, frame.Token)
			midLine = true
		case wire.TypeDraw:
			endLine()
			line := "[draw " + frame.Cmd
			if len(frame.Args) > 0 {
				line += " " + string(frame.Args)
			}
			_, _ = fmt.Fprintln(out, styles.draw.Render(line+"]"))
		case wire.TypeError:
			endLine()
			_, _ = fmt.Fprintln(out, styles.failed.Render(frame.Message))
			return errors.New(frame.Message)
		}
	}
}
