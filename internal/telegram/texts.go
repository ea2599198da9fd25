package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const (
	startText = "👋 I am an exam countdown bot.\n\n" +
		"Add your exams and I will remind you every day how many days are left.\n\n" +
		"Commands:\n" +
		"/add <YYYY-MM-DD> [HH:MM] <title> — add an exam\n" +
		"/list — your exams\n" +
		"/delete <n> — delete an exam\n" +
		"/edit <n> title <text> | /edit <n> date <YYYY-MM-DD> [HH:MM]\n" +
		"/settime <HH:MM> — daily reminder time\n" +
		"/timezone <Zone> — e.g. Europe/Rome\n" +
		"/notifynow — send my reminder now"

	helpText = "📖 Usage:\n\n" +
		"/add 2026-06-15 Math Analysis — exam at the default time\n" +
		"/add 2026-06-15 14:30 Physics — exam with an explicit time\n" +
		"/list — exams ordered by date, earliest first\n" +
		"/delete 2 — delete exam number 2\n" +
		"/edit 2 title Linear Algebra — rename exam 2\n" +
		"/edit 2 date 2026-07-01 — move exam 2\n" +
		"/settime 08:30 — reminder time (your local time)\n" +
		"/timezone Europe/Berlin — set your timezone"

	noExamsText        = "You have no exams yet. Add one with /add."
	examAddedFmt       = "✅ Added exam %d: %s (%s)"
	examDeletedFmt     = "🗑 Deleted exam %d."
	examNotFoundFmt    = "Exam %d not found."
	examUpdatedFmt     = "✏️ Updated exam %d."
	timeUpdatedFmt     = "⏰ Daily reminder set to %s (%s)."
	timezoneUpdatedFmt = "🌍 Timezone set to %s. Reminders at %s local time."

	badAddText    = "Usage: /add <YYYY-MM-DD> [HH:MM] <title>"
	badDeleteText = "Usage: /delete <exam number>"
	badEditText   = "Usage: /edit <n> title <text>  or  /edit <n> date <YYYY-MM-DD> [HH:MM]"
	badTimeText   = "That doesn't look like a time. Use HH:MM, e.g. 09:00."
	badTZText     = "Unknown timezone. Use an IANA name like Europe/Rome."
)

// mainMenuKeyboard is the persistent reply keyboard with the common actions.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/list"),
			tgbotapi.NewKeyboardButton("/notifynow"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// listInlineKeyboard offers refresh plus one delete button per exam.
func listInlineKeyboard(examIDs []int, titles []string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_list"),
			tgbotapi.NewInlineKeyboardButtonData("📨 Notify now", "notify_now"),
		),
	}
	for i, id := range examIDs {
		label := "🗑 " + titles[i]
		if r := []rune(label); len(r) > 32 {
			label = string(r[:32])
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, deleteCallback(id)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
