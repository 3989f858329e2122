package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func answerWith(answer string) AskerFunc {
	return func(context.Context, string) (string, error) { return answer, nil }
}

func failWith(err error) AskerFunc {
	return func(context.Context, string) (string, error) { return "", err }
}

func TestSendHelloScenario(t *testing.T) {
	var asked []string
	asker := AskerFunc(func(_ context.Context, q string) (string, error) {
		asked = append(asked, q)
		return "Hi there", nil
	})
	o := NewOrchestrator(asker, WithIDs(CounterIDs("m")))

	ex, ok := o.Begin("Hello")
	if !ok {
		t.Fatal("Begin(\"Hello\") was rejected")
	}
	got := o.Messages()
	if len(got) != 1 || got[0].Role != RoleUser || got[0].Content != "Hello" {
		t.Fatalf("Messages() before answer = %+v, want one user message", got)
	}
	if !o.Busy() {
		t.Fatal("Busy() = false while request outstanding")
	}
	if len(asked) != 0 {
		t.Fatalf("asker called before Ask: %v", asked)
	}

	o.Finish(o.Ask(context.Background(), ex))

	got = o.Messages()
	want := []Message{
		{ID: "m-1", Role: RoleUser, Content: "Hello"},
		{ID: "m-2", Role: RoleAssistant, Content: "Hi there"},
	}
	if len(got) != len(want) {
		t.Fatalf("Messages() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Messages()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if o.Busy() {
		t.Fatal("Busy() = true after Finish")
	}
	if len(asked) != 1 || asked[0] != "Hello" {
		t.Fatalf("asked = %v, want [Hello]", asked)
	}
}

func TestSendKeepsRawText(t *testing.T) {
	var asked string
	o := NewOrchestrator(AskerFunc(func(_ context.Context, q string) (string, error) {
		asked = q
		return "ok", nil
	}))
	raw := "  what is a bond?\n"
	if !o.Send(context.Background(), raw) {
		t.Fatal("Send() = false")
	}
	if got := o.Messages()[0].Content; got != raw {
		t.Fatalf("user content = %q, want %q", got, raw)
	}
	if asked != raw {
		t.Fatalf("asked = %q, want %q", asked, raw)
	}
}

func TestSendBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n", "   \r\n  "} {
		called := false
		notified := false
		o := NewOrchestrator(
			AskerFunc(func(context.Context, string) (string, error) {
				called = true
				return "x", nil
			}),
			WithObserver(func(State) { notified = true }),
		)
		if o.Send(context.Background(), text) {
			t.Fatalf("Send(%q) = true, want false", text)
		}
		if len(o.Messages()) != 0 {
			t.Fatalf("Send(%q) changed the store: %+v", text, o.Messages())
		}
		if called || notified || o.Busy() {
			t.Fatalf("Send(%q): called=%v notified=%v busy=%v", text, called, notified, o.Busy())
		}
	}
}

func TestBeginRejectedWhileBusy(t *testing.T) {
	calls := 0
	o := NewOrchestrator(AskerFunc(func(context.Context, string) (string, error) {
		calls++
		return "first", nil
	}))

	ex, ok := o.Begin("first")
	if !ok {
		t.Fatal("first Begin rejected")
	}
	if _, ok := o.Begin("second"); ok {
		t.Fatal("second Begin accepted while busy")
	}
	if n := len(o.Messages()); n != 1 {
		t.Fatalf("len(Messages()) = %d after rejected submit, want 1", n)
	}

	o.Finish(o.Ask(context.Background(), ex))
	if calls != 1 {
		t.Fatalf("asker calls = %d, want 1", calls)
	}
	if _, ok := o.Begin("third"); !ok {
		t.Fatal("Begin rejected after returning to idle")
	}
}

func TestSendFailureLeavesOnlyUserMessage(t *testing.T) {
	o := NewOrchestrator(failWith(errors.New("connection refused")))
	if !o.Send(context.Background(), "Hello") {
		t.Fatal("Send() = false")
	}
	got := o.Messages()
	if len(got) != 1 || got[0].Role != RoleUser || got[0].Content != "Hello" {
		t.Fatalf("Messages() = %+v, want only the user message", got)
	}
	if o.Busy() {
		t.Fatal("Busy() = true after failure")
	}
}

func TestSendPanickingAskerClearsBusy(t *testing.T) {
	o := NewOrchestrator(AskerFunc(func(context.Context, string) (string, error) {
		panic("boom")
	}))
	o.Send(context.Background(), "Hello")
	if o.Busy() {
		t.Fatal("Busy() = true after panicking asker")
	}
	if n := len(o.Messages()); n != 1 {
		t.Fatalf("len(Messages()) = %d, want 1", n)
	}
}

func TestFinishWithoutBeginIgnored(t *testing.T) {
	o := NewOrchestrator(answerWith("x"))
	o.Finish(Result{Answer: "stray"})
	if n := len(o.Messages()); n != 0 {
		t.Fatalf("len(Messages()) = %d, want 0", n)
	}
}

func TestIDsUniqueAcrossSends(t *testing.T) {
	i := 0
	o := NewOrchestrator(AskerFunc(func(context.Context, string) (string, error) {
		i++
		if i%3 == 0 {
			return "", errors.New("flaky")
		}
		return fmt.Sprintf("answer %d", i), nil
	}))
	for n := 0; n < 50; n++ {
		o.Send(context.Background(), fmt.Sprintf("q%d", n))
	}
	seen := make(map[string]bool)
	for _, m := range o.Messages() {
		if m.ID == "" {
			t.Fatal("empty message id")
		}
		if seen[m.ID] {
			t.Fatalf("duplicate message id %q", m.ID)
		}
		seen[m.ID] = true
	}
	if len(seen) != 50+34 {
		t.Fatalf("got %d messages, want %d", len(seen), 50+34)
	}
}

func TestMessagesStayChronological(t *testing.T) {
	o := NewOrchestrator(AskerFunc(func(_ context.Context, q string) (string, error) {
		return "re:" + q, nil
	}))
	for _, q := range []string{"a", "b", "c"} {
		o.Send(context.Background(), q)
	}
	want := []string{"a", "re:a", "b", "re:b", "c", "re:c"}
	got := o.Messages()
	for i, m := range got {
		if m.Content != want[i] {
			t.Fatalf("Messages()[%d].Content = %q, want %q", i, m.Content, want[i])
		}
		wantRole := RoleUser
		if i%2 == 1 {
			wantRole = RoleAssistant
		}
		if m.Role != wantRole {
			t.Fatalf("Messages()[%d].Role = %q, want %q", i, m.Role, wantRole)
		}
	}
}

func TestObserverSeesBusyTransitions(t *testing.T) {
	var states []State
	o := NewOrchestrator(answerWith("X"), WithObserver(func(s State) { states = append(states, s) }))
	o.Send(context.Background(), "t")

	if len(states) != 2 {
		t.Fatalf("observer called %d times, want 2", len(states))
	}
	if !states[0].Busy || len(states[0].Messages) != 1 {
		t.Fatalf("first state = %+v, want busy with one message", states[0])
	}
	if states[1].Busy || len(states[1].Messages) != 2 {
		t.Fatalf("second state = %+v, want idle with two messages", states[1])
	}
}

func TestNewOrchestratorStartsEmpty(t *testing.T) {
	store := NewStore()
	first := NewOrchestrator(answerWith("x"), WithStore(store))
	first.Send(context.Background(), "hello")
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2", store.Len())
	}

	reloaded := NewOrchestrator(answerWith("x"))
	if n := len(reloaded.Messages()); n != 0 {
		t.Fatalf("fresh orchestrator has %d messages, want 0", n)
	}
	if reloaded.Busy() {
		t.Fatal("fresh orchestrator is busy")
	}
}
