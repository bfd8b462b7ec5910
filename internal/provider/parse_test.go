package provider

import (
	"encoding/json"
	"testing"

	"mediagen-gateway/internal/request"
)

func TestParseTitlesThumbnails(t *testing.T) {
	t.Parallel()

	raw := `Here are your titles.

TITLES:
1. How Index Funds Really Work
2. The One Chart That Changed My Investing
3) Stop Picking Stocks

THUMBNAILS:
1. INDEX FUNDS WIN
- SEE THE CHART
`

	titles, thumbs := parseTitlesThumbnails(raw)
	if len(titles) != 3 {
		t.Fatalf("expected 3 titles, got %d: %#v", len(titles), titles)
	}
	if titles[0] != "How Index Funds Really Work" {
		t.Errorf("unexpected first title: %q", titles[0])
	}
	if titles[2] != "Stop Picking Stocks" {
		t.Errorf("unexpected third title: %q", titles[2])
	}
	if len(thumbs) != 2 {
		t.Fatalf("expected 2 thumbnails, got %d: %#v", len(thumbs), thumbs)
	}
	if thumbs[1] != "SEE THE CHART" {
		t.Errorf("unexpected second thumbnail: %q", thumbs[1])
	}
}

func TestParseNumberedListKeepsLeadingDigits(t *testing.T) {
	t.Parallel()

	raw := `1. 2024 Best Moments
2) 10 Psalms That Changed Me
- 7 Habits Worth Keeping
`

	items := parseNumberedList(raw, 3)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %#v", len(items), items)
	}
	want := []string{
		"2024 Best Moments",
		"10 Psalms That Changed Me",
		"7 Habits Worth Keeping",
	}
	for i, w := range want {
		if items[i] != w {
			t.Errorf("item %d = %q, want %q", i, items[i], w)
		}
	}
}

func TestParseShorts(t *testing.T) {
	t.Parallel()

	raw := `Sure, here are two shorts.

SHORT 1: The Opening Hook
HOOK: You are losing money every day you wait.
SCRIPT: Most people think investing is complicated.
It is not. Buy the whole market and hold.
CAPTION: Start today, not tomorrow.
HASHTAGS: #investing #indexfunds

SHORT 2: The Compound Effect
HOOK: One dollar can become seventeen.
SCRIPT: Compounding is slow then sudden.
CAPTION: Patience pays.
HASHTAGS: #compounding #money
`

	shorts := parseShorts(raw, 4)
	if len(shorts) != 2 {
		t.Fatalf("expected 2 shorts, got %d", len(shorts))
	}

	first := shorts[0]
	if first.Title != "The Opening Hook" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Hook != "You are losing money every day you wait." {
		t.Errorf("unexpected hook: %q", first.Hook)
	}
	if first.Script != "Most people think investing is complicated.\nIt is not. Buy the whole market and hold." {
		t.Errorf("unexpected script: %q", first.Script)
	}
	if first.Caption != "Start today, not tomorrow." {
		t.Errorf("unexpected caption: %q", first.Caption)
	}
	if first.Hashtags != "#investing #indexfunds" {
		t.Errorf("unexpected hashtags: %q", first.Hashtags)
	}

	if shorts[1].Title != "The Compound Effect" {
		t.Errorf("unexpected second title: %q", shorts[1].Title)
	}
}

func TestParseShortsIgnoresPreambleOnly(t *testing.T) {
	t.Parallel()

	if shorts := parseShorts("I could not generate any shorts for that input.", 4); len(shorts) != 0 {
		t.Fatalf("expected no shorts, got %d", len(shorts))
	}
}

func TestPayloadForTextScript(t *testing.T) {
	t.Parallel()

	spec := request.Spec{Operation: request.OpScript, Channel: "devotional", Theme: "psalms", Tier: request.TierFree}
	payload, err := payloadForText(request.OpScript, "  SEGMENT 1:\nIn the beginning...  ", spec)
	if err != nil {
		t.Fatalf("payloadForText: %v", err)
	}
	var sp ScriptPayload
	if err := json.Unmarshal(payload, &sp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sp.Script != "SEGMENT 1:\nIn the beginning..." {
		t.Errorf("script not trimmed: %q", sp.Script)
	}
}

func TestPayloadForTextEmptyContent(t *testing.T) {
	t.Parallel()

	spec := request.Spec{Operation: request.OpScript, Channel: "devotional", Theme: "psalms", Tier: request.TierFree}
	if _, err := payloadForText(request.OpScript, "   \n  ", spec); err == nil {
		t.Fatal("expected error for empty model output")
	}
}
