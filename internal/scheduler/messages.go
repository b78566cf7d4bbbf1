package scheduler

// User-facing confirmations for natural language reminders. Unknown
// languages get the English text.

var successMessages = map[string]string{
	"ur": "یاد دہانی سیٹ ہو گئی! میں آپ کو یاد دلاؤں گا: ",
	"ps": "یادونه موږه شوه! زه به تاسو ته یاد راکړم: ",
	"en": "Reminder set! I'll remind you: ",
}

var failureMessages = map[string]string{
	"ur": "معاف کیجئے، میں یہ یاد دہانی سیٹ نہیں کر سکا۔",
	"ps": "وبخښئ، زه دا یادونه نشو کولی سیٹ کړی.",
	"en": "Sorry, I couldn't set this reminder.",
}

func successMessage(language, reminder string) string {
	m, ok := successMessages[language]
	if !ok {
		m = successMessages["en"]
	}
	return m + reminder
}

func failureMessage(language string) string {
	m, ok := failureMessages[language]
	if !ok {
		m = failureMessages["en"]
	}
	return m
}
