package config

import "testing"

func TestLoad_RequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("want error when BOT_TOKEN is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultTimezone != "Europe/Rome" {
		t.Errorf("DefaultTimezone = %q", cfg.DefaultTimezone)
	}
	if cfg.DefaultNotifyTime != "09:00" {
		t.Errorf("DefaultNotifyTime = %q", cfg.DefaultNotifyTime)
	}
	if cfg.DBPath != "exam_bot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.UseFirestore || cfg.DebugFastSchedule || cfg.NotifyWhenEmpty {
		t.Error("boolean flags must default to off")
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("USE_FIRESTORE", "true")
	t.Setenv("FIREBASE_PROJECT_ID", "exam-bot")
	t.Setenv("DEBUG_FAST_SCHEDULE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.UseFirestore || cfg.FirebaseProjectID != "exam-bot" || !cfg.DebugFastSchedule {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
