package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/terapiaconect/platform/internal/tokenledger"
)

type stubChat struct {
	resp *ChatResponse
	err  error

	gotModel    string
	gotMessages []tokenledger.Message
}

func (s *stubChat) ChatCompletion(_ context.Context, model string, messages []tokenledger.Message, _ float64) (*ChatResponse, error) {
	s.gotModel = model
	s.gotMessages = messages
	return s.resp, s.err
}

type recordingLedger struct {
	tokenCalls []string
	usageCalls []string
}

func (r *recordingLedger) LogTokens(model string, _, _ int) tokenledger.Usage {
	r.tokenCalls = append(r.tokenCalls, model)
	return tokenledger.Usage{Model: model}
}

func (r *recordingLedger) LogUsage(model string, _ []tokenledger.Message, _ string) tokenledger.Usage {
	r.usageCalls = append(r.usageCalls, model)
	return tokenledger.Usage{Model: model}
}

func TestSummarizeLogsProviderTokens(t *testing.T) {
	chat := &stubChat{resp: &ChatResponse{Content: "resumo", InputTokens: 100, OutputTokens: 30}}
	ledger := &recordingLedger{}
	svc := NewInsightsService(chat, ledger, "gpt-4o-mini", nil)

	out, err := svc.Summarize(context.Background(), "paciente relatou melhora no sono")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "resumo" {
		t.Errorf("summary = %q", out)
	}
	if chat.gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q", chat.gotModel)
	}
	if len(chat.gotMessages) != 2 || chat.gotMessages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", chat.gotMessages)
	}
	if len(ledger.tokenCalls) != 1 || len(ledger.usageCalls) != 0 {
		t.Fatalf("expected one LogTokens call, got %+v / %+v", ledger.tokenCalls, ledger.usageCalls)
	}
}

func TestInsightsEstimatesWhenUsageMissing(t *testing.T) {
	chat := &stubChat{resp: &ChatResponse{Content: "temas recorrentes"}}
	ledger := &recordingLedger{}
	svc := NewInsightsService(chat, ledger, "", nil)

	if _, err := svc.GenerateInsights(context.Background(), "transcript"); err != nil {
		t.Fatalf("insights: %v", err)
	}
	if len(ledger.usageCalls) != 1 || ledger.usageCalls[0] != "gpt-4o-mini" {
		t.Fatalf("expected estimated LogUsage on default model, got %+v", ledger.usageCalls)
	}
}

func TestInsightsPropagatesChatErrors(t *testing.T) {
	chat := &stubChat{err: errors.New("upstream down")}
	ledger := &recordingLedger{}
	svc := NewInsightsService(chat, ledger, "gpt-4o-mini", nil)

	if _, err := svc.Summarize(context.Background(), "transcript"); err == nil {
		t.Fatal("expected error")
	}
	if len(ledger.tokenCalls)+len(ledger.usageCalls) != 0 {
		t.Fatal("failed calls must not be logged to the ledger")
	}
}

func TestInsightsRejectsEmptyTranscript(t *testing.T) {
	svc := NewInsightsService(&stubChat{}, &recordingLedger{}, "gpt-4o-mini", nil)
	if _, err := svc.Summarize(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}
