package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/culturalabs/cultura/internal/config"
)

type fakeResponder struct {
	replies map[string]string
	err     error
}

func (f *fakeResponder) Respond(ctx context.Context, userID, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if reply, ok := f.replies[message]; ok {
		return reply, nil
	}
	return "default reply", nil
}

func fakeFactory(r *fakeResponder) ResponderFactory {
	return func(cfg *config.Config) (Responder, error) {
		return r, nil
	}
}

func TestRunChatSingleMessage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	messageFlag = "what should I wear?"
	defer func() { messageFlag = "" }()

	var stdout bytes.Buffer
	responder := &fakeResponder{replies: map[string]string{
		"what should I wear?": `1. A linen shirt.\n2. Loafers.`,
	}}

	err := runChatWithOptions(ChatOptions{
		ResponderFactory: fakeFactory(responder),
		Stdout:           &stdout,
	})
	if err != nil {
		t.Fatalf("runChatWithOptions: %v", err)
	}

	got := stdout.String()
	if !strings.Contains(got, "1. A linen shirt.\n2. Loafers.") {
		t.Errorf("stdout = %q, want unescaped reply", got)
	}
}

func TestRunChatREPL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	messageFlag = ""
	stdin := strings.NewReader("hello there\nexit\n")
	var stdout bytes.Buffer

	err := runChatWithOptions(ChatOptions{
		ResponderFactory: fakeFactory(&fakeResponder{replies: map[string]string{
			"hello there": "Hey! Looking sharp today.",
		}}),
		Stdin:  stdin,
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("runChatWithOptions: %v", err)
	}

	got := stdout.String()
	if !strings.Contains(got, "cultura chat") {
		t.Errorf("stdout missing banner: %q", got)
	}
	if !strings.Contains(got, "Hey! Looking sharp today.") {
		t.Errorf("stdout missing reply: %q", got)
	}
}

func TestRunChatREPLReportsErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	messageFlag = ""
	stdin := strings.NewReader("break please now\nexit\n")
	var stdout, stderr bytes.Buffer

	err := runChatWithOptions(ChatOptions{
		ResponderFactory: fakeFactory(&fakeResponder{err: fmt.Errorf("model offline")}),
		Stdin:            stdin,
		Stdout:           &stdout,
		Stderr:           &stderr,
	})
	if err != nil {
		t.Fatalf("runChatWithOptions: %v", err)
	}
	if !strings.Contains(stderr.String(), "model offline") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := DefaultResponderFactory(cfg); err == nil {
		t.Error("expected error without an API key")
	}
}
