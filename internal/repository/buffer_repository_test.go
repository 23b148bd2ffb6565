package repository

import (
	"faqbot_backend/internal/model"
	"testing"
)

func TestDecodeEntries(t *testing.T) {
	t.Run("decodes entries in order", func(t *testing.T) {
		raw := []string{
			`{"kind":"user_message","text":"store hours"}`,
			`{"kind":"bot_response","text":"Our store hours are from 9 AM to 9 PM.","keywords":["store hours"]}`,
		}
		entries := decodeEntries(raw)
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Kind != model.UserMessage || entries[0].Text != "store hours" {
			t.Errorf("entry 0 = %+v", entries[0])
		}
		if entries[1].Kind != model.BotResponse || len(entries[1].Keywords) != 1 {
			t.Errorf("entry 1 = %+v", entries[1])
		}
	})

	t.Run("skips undecodable items", func(t *testing.T) {
		raw := []string{
			`not json`,
			`{"kind":"user_message","text":"hello"}`,
		}
		entries := decodeEntries(raw)
		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		if entries[0].Text != "hello" {
			t.Errorf("entry = %+v", entries[0])
		}
	})

	t.Run("empty input yields empty slice", func(t *testing.T) {
		if entries := decodeEntries(nil); len(entries) != 0 {
			t.Errorf("got %v", entries)
		}
	})
}
